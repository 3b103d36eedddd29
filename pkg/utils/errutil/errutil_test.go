package errutil_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/fairmed-lab/fairmed/pkg/utils/errutil"
)

func TestHandleHTTP_ClientError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := goerr.New("scenario is required", goerr.V("field", "scenario"))

	errutil.HandleHTTP(context.Background(), rec, err, http.StatusBadRequest, "invalid_request")

	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	gt.Value(t, rec.Header().Get("Content-Type")).Equal("application/json")

	var resp errutil.ErrorResponse
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Value(t, resp.Code).Equal("invalid_request")
	gt.S(t, resp.Error).Contains("scenario is required")
}

func TestHandleHTTP_ServerErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	err := goerr.New("connection string leaked: secret")

	errutil.HandleHTTP(context.Background(), rec, err, http.StatusInternalServerError, "internal")

	gt.Value(t, rec.Code).Equal(http.StatusInternalServerError)

	var resp errutil.ErrorResponse
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Value(t, resp.Error).Equal("Internal Server Error")
	gt.Value(t, resp.Code).Equal("internal")
}

func TestHandleHTTP_NilError(t *testing.T) {
	rec := httptest.NewRecorder()
	errutil.HandleHTTP(context.Background(), rec, nil, http.StatusInternalServerError, "internal")
	gt.Value(t, rec.Body.Len()).Equal(0)
}
