package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDatalink_CollectionOverride(t *testing.T) {
	rec := &Record{ObsPublisherDID: "ivo://rubin//raw?id=1", AccessURL: "s3://bucket/raw.fits"}
	c := &Collection{DatalinkURL: "https://data.example.com/links?ID={id}"}
	rec.ApplyDatalink(c)

	assert.Equal(t, "https://data.example.com/links?ID=ivo%3A%2F%2Frubin%2F%2Fraw%3Fid%3D1", rec.AccessURL)
	assert.Equal(t, DatalinkFormat, rec.AccessFormat)
}

func TestApplyDatalink_MappingFormat(t *testing.T) {
	rec := &Record{ObsPublisherDID: "ivo://rubin//raw?id=1"}
	c := &Collection{
		Mapping: &ObsCoreMapping{DatalinkURLFmt: "https://data.example.com/links?ID={id}"},
	}
	rec.ApplyDatalink(c)

	assert.Equal(t, DatalinkFormat, rec.AccessFormat)
	assert.Contains(t, rec.AccessURL, "ID=ivo%3A%2F%2Frubin%2F%2Fraw%3Fid%3D1")
}

// Reserved characters in the publisher DID must not leak into the URL
// structure.
func TestApplyDatalink_EscapesReservedCharacters(t *testing.T) {
	rec := &Record{ObsPublisherDID: "ivo://rubin/dp02?visit=1&detector=42"}
	c := &Collection{DatalinkURL: "https://data.example.com/links?ID={id}"}
	rec.ApplyDatalink(c)

	assert.Equal(t,
		"https://data.example.com/links?ID=ivo%3A%2F%2Frubin%2Fdp02%3Fvisit%3D1%26detector%3D42",
		rec.AccessURL)
	assert.NotContains(t, rec.AccessURL[len("https://data.example.com/links?"):], "&")
}

func TestApplyDatalink_NoOverrideKeepsDirectURL(t *testing.T) {
	rec := &Record{ObsPublisherDID: "ivo://rubin//raw?id=1", AccessURL: "s3://bucket/raw.fits"}
	rec.ApplyDatalink(&Collection{})

	assert.Equal(t, "s3://bucket/raw.fits", rec.AccessURL)
	assert.Equal(t, "image/fits", rec.AccessFormat)
}

func TestApplyDatalink_KeepsExplicitFormat(t *testing.T) {
	rec := &Record{AccessURL: "s3://bucket/raw.jpg", AccessFormat: "image/jpeg"}
	rec.ApplyDatalink(&Collection{})

	assert.Equal(t, "image/jpeg", rec.AccessFormat)
}
