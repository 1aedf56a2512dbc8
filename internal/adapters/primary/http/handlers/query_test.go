package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sia-service/internal/adapters/primary/http/middleware"
	"sia-service/internal/core/domain"
	"sia-service/internal/core/services"
	"sia-service/internal/testutil"
	"sia-service/internal/votable"
)

func testCollections() []*domain.Collection {
	return []*domain.Collection{
		{
			Name: "hsc", Label: "LSST.CI", Default: true,
			ButlerType: domain.ButlerDirect, Repository: "obscore",
			Mapping: &domain.ObsCoreMapping{
				FacilityName:       "Subaru",
				ResourceIdentifier: "ivo://rubin//ci_hsc_gen3",
				Instruments:        []string{"HSC"},
			},
		},
		{
			Name: "dp02", Label: "LSST.DP02",
			ButlerType: domain.ButlerRemote, Repository: "https://data.example.com/api/butler/repo/dp02",
		},
	}
}

func setupQueryRouter(t *testing.T) (*testutil.MockQueryEngine, *testutil.MockQueryEngine, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	direct := new(testutil.MockQueryEngine)
	remote := new(testutil.MockQueryEngine)

	collections, err := services.NewCollectionService(testCollections())
	require.NoError(t, err)
	query := services.NewQueryService(direct, remote, 1000, 100000)
	selfDesc := services.NewSelfDescriptionService(100000)
	availability := services.NewAvailabilityService(nil, nil)

	h := New(collections, query, selfDesc, availability, 5*time.Second)
	r := gin.New()
	r.Use(middleware.BearerToken())
	root := r.Group("/")
	h.RegisterRoutes(root, root)

	return direct, remote, r
}

func sampleRecord(obsID string) domain.Record {
	return domain.Record{
		DataproductType: "image",
		CalibLevel:      2,
		ObsCollection:   "LSST.CI",
		ObsID:           obsID,
		ObsPublisherDID: "ivo://rubin//ci_hsc_gen3?" + obsID,
		AccessURL:       "https://data.example.com/links/" + obsID,
		AccessFormat:    domain.DatalinkFormat,
		TargetName:      "tract9813",
		SRA:             320.5, SDec: -0.2, SFov: 0.3,
		SRegion: "POLYGON ICRS 320.4 -0.3 320.6 -0.3 320.6 -0.1 320.4 -0.1",
		TMin:    56598.26, TMax: 56598.27, TExpTime: 30,
		EmMin: 5.43e-07, EmMax: 6.93e-07,
		OUCD:         "phot.count",
		FacilityName: "Subaru", InstrumentName: "HSC",
	}
}

func TestQuery_StreamsVOTable(t *testing.T) {
	direct, _, r := setupQueryRouter(t)

	it := &testutil.SliceIterator{Records: []domain.Record{sampleRecord("calexp-1"), sampleRecord("calexp-2")}}
	direct.On("Query", mock.Anything, mock.Anything, mock.Anything, "").Return(it, nil)

	req, _ := http.NewRequest("GET", "/hsc/query?POS=CIRCLE+320.5+-0.2+0.5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, votable.MediaType, w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=result.xml", w.Header().Get("Content-Disposition"))

	body := w.Body.String()
	assert.Contains(t, body, `value="OK"`)
	assert.Contains(t, body, "<TD>calexp-1</TD>")
	assert.Contains(t, body, "<TD>calexp-2</TD>")
	assert.NotContains(t, body, `value="OVERFLOW"`)
	assert.True(t, it.Closed)
}

func TestQuery_OverflowInfoAppended(t *testing.T) {
	direct, _, r := setupQueryRouter(t)

	it := &testutil.SliceIterator{Records: []domain.Record{sampleRecord("calexp-1")}, Overflow: true}
	direct.On("Query", mock.Anything, mock.Anything, mock.Anything, "").Return(it, nil)

	req, _ := http.NewRequest("GET", "/hsc/query?POS=CIRCLE+320.5+-0.2+0.5&MAXREC=1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="OVERFLOW"`)
}

func TestQuery_UsageFaultIsErrorVOTable(t *testing.T) {
	direct, _, r := setupQueryRouter(t)

	req, _ := http.NewRequest("GET", "/hsc/query?POS=other_shape+42+42+42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `name="QUERY_STATUS" value="ERROR"`)
	assert.Contains(t, body, "UsageFault: Unrecognized shape in POS string 'other_shape'")
	direct.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuery_UnknownCollectionIsPlain404(t *testing.T) {
	_, _, r := setupQueryRouter(t)

	req, _ := http.NewRequest("GET", "/nope/query?MAXREC=1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "VOTABLE")
}

func TestQuery_RemoteWithoutTokenIs401(t *testing.T) {
	_, remote, r := setupQueryRouter(t)

	req, _ := http.NewRequest("GET", "/dp02/query?MAXREC=5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	remote.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuery_RemoteTokenForwarded(t *testing.T) {
	_, remote, r := setupQueryRouter(t)

	it := &testutil.SliceIterator{}
	remote.On("Query", mock.Anything, mock.Anything, mock.Anything, "sometoken").Return(it, nil)

	req, _ := http.NewRequest("GET", "/dp02/query?MAXREC=5", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	remote.AssertExpectations(t)
}

func TestQuery_MaxRecZeroReturnsSelfDescription(t *testing.T) {
	direct, _, r := setupQueryRouter(t)

	req, _ := http.NewRequest("GET", "/hsc/query?MAXREC=0", nil)
	req.Host = "sia.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, votable.MediaType, w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `type="meta"`)
	assert.Contains(t, body, `value="https://sia.example.com/hsc/query"`)
	direct.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuery_EmptyParamsAlsoSelfDescribe(t *testing.T) {
	direct, _, r := setupQueryRouter(t)

	req, _ := http.NewRequest("GET", "/hsc/query", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `type="meta"`)
	direct.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuery_PostFormBody(t *testing.T) {
	direct, _, r := setupQueryRouter(t)

	it := &testutil.SliceIterator{Records: []domain.Record{sampleRecord("calexp-1")}}
	direct.On("Query", mock.Anything, mock.Anything, mock.MatchedBy(func(q *domain.Query) bool {
		return len(q.Positions) == 1 && q.Positions[0].Shape == domain.ShapeCircle
	}), "").Return(it, nil)

	form := url.Values{"pos": []string{"circle 320.5 -0.2 0.5"}}
	req, _ := http.NewRequest("POST", "/hsc/query", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<TD>calexp-1</TD>")
	direct.AssertExpectations(t)
}

func TestQuery_PostJSONBody(t *testing.T) {
	direct, _, r := setupQueryRouter(t)

	it := &testutil.SliceIterator{Records: []domain.Record{sampleRecord("calexp-1")}}
	direct.On("Query", mock.Anything, mock.Anything, mock.Anything, "").Return(it, nil)

	body := `{"POS": "CIRCLE 320.5 -0.2 0.5", "CALIB": [2, 3]}`
	req, _ := http.NewRequest("POST", "/hsc/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<TD>calexp-1</TD>")
}

func TestQuery_MidStreamFailureReportedInDocument(t *testing.T) {
	direct, _, r := setupQueryRouter(t)

	it := &testutil.SliceIterator{
		Records: []domain.Record{sampleRecord("calexp-1")},
		Failure: domain.ServerFault(nil, "connection reset by backend"),
	}
	direct.On("Query", mock.Anything, mock.Anything, mock.Anything, "").Return(it, nil)

	req, _ := http.NewRequest("GET", "/hsc/query?MAXREC=10", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// The status was committed before the failure; the document carries it.
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<TD>calexp-1</TD>")
	assert.Contains(t, body, `value="ERROR"`)
	assert.Contains(t, body, "connection reset by backend")
}
