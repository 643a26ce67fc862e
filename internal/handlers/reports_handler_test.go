package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDisasterReader struct {
	mock.Mock
}

func (m *MockDisasterReader) Get(ctx context.Context, id int64) (*model.DisasterReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DisasterReport), args.Error(1)
}

func (m *MockDisasterReader) List(ctx context.Context, f model.ReportFilter) ([]*model.DisasterReport, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.DisasterReport), args.Get(1).(int64), args.Error(2)
}

func (m *MockDisasterReader) UpdateStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

type MockAuditReader struct {
	mock.Mock
}

func (m *MockAuditReader) List(ctx context.Context, f repository.ProcessingLogFilter) ([]*model.ProcessingLogEntry, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.ProcessingLogEntry), args.Get(1).(int64), args.Error(2)
}

func newReportsHandler(disasters *MockDisasterReader, audit *MockAuditReader) *ReportsHandler {
	return NewReportsHandler(disasters, nil, nil, audit)
}

func TestReportsHandler_ListDisasters(t *testing.T) {
	t.Run("successful list with filters", func(t *testing.T) {
		repo := new(MockDisasterReader)
		handler := newReportsHandler(repo, nil)

		repo.On("List", mock.Anything, mock.MatchedBy(func(f model.ReportFilter) bool {
			return f.Status != nil && *f.Status == "Active" && f.Limit == 10 && f.Desc
		})).Return([]*model.DisasterReport{
			{ID: 1, DisasterType: "flood", Status: "Active"},
			{ID: 2, DisasterType: "fire", Status: "Active"},
		}, int64(2), nil)

		ctx := setupTestContext("GET", "/reports/disasters?status=Active&limit=10&order=desc", nil)
		handler.ListDisasters(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response listReportsResponse[*model.DisasterReport]
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, int64(2), response.Total)
		assert.Len(t, response.Items, 2)

		repo.AssertExpectations(t)
	})

	t.Run("sender filter", func(t *testing.T) {
		repo := new(MockDisasterReader)
		handler := newReportsHandler(repo, nil)

		repo.On("List", mock.Anything, mock.MatchedBy(func(f model.ReportFilter) bool {
			return f.Sender != nil && *f.Sender == "+639171234567"
		})).Return([]*model.DisasterReport{}, int64(0), nil)

		ctx := setupTestContext("GET", "/reports/disasters?sender=%2B639171234567", nil)
		handler.ListDisasters(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		repo.AssertExpectations(t)
	})
}

func TestReportsHandler_GetDisaster(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo := new(MockDisasterReader)
		handler := newReportsHandler(repo, nil)

		repo.On("Get", mock.Anything, int64(42)).
			Return(&model.DisasterReport{ID: 42, DisasterType: "flood"}, nil)

		ctx := setupTestContext("GET", "/reports/disasters/42", nil)
		ctx.SetUserValue("id", "42")
		handler.GetDisaster(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.DisasterReport
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, int64(42), response.ID)

		repo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockDisasterReader)
		handler := newReportsHandler(repo, nil)

		repo.On("Get", mock.Anything, int64(99)).Return(nil, repository.ErrNotFound)

		ctx := setupTestContext("GET", "/reports/disasters/99", nil)
		ctx.SetUserValue("id", "99")
		handler.GetDisaster(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("invalid id", func(t *testing.T) {
		repo := new(MockDisasterReader)
		handler := newReportsHandler(repo, nil)

		ctx := setupTestContext("GET", "/reports/disasters/abc", nil)
		ctx.SetUserValue("id", "abc")
		handler.GetDisaster(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		repo.AssertNotCalled(t, "Get")
	})
}

func TestReportsHandler_UpdateDisasterStatus(t *testing.T) {
	t.Run("closing maps to the category label", func(t *testing.T) {
		repo := new(MockDisasterReader)
		handler := newReportsHandler(repo, nil)

		repo.On("UpdateStatus", mock.Anything, int64(7), "Resolved").Return(nil)

		ctx := setupTestContext("PATCH", "/reports/disasters/7/status", []byte(`{"state":"closed"}`))
		ctx.SetUserValue("id", "7")
		handler.UpdateDisasterStatus(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response map[string]string
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, "Resolved", response["status"])

		repo.AssertExpectations(t)
	})

	t.Run("reopening maps back to Active", func(t *testing.T) {
		repo := new(MockDisasterReader)
		handler := newReportsHandler(repo, nil)

		repo.On("UpdateStatus", mock.Anything, int64(7), "Active").Return(nil)

		ctx := setupTestContext("PATCH", "/reports/disasters/7/status", []byte(`{"state":"open"}`))
		ctx.SetUserValue("id", "7")
		handler.UpdateDisasterStatus(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		repo.AssertExpectations(t)
	})

	t.Run("unknown state is rejected", func(t *testing.T) {
		repo := new(MockDisasterReader)
		handler := newReportsHandler(repo, nil)

		ctx := setupTestContext("PATCH", "/reports/disasters/7/status", []byte(`{"state":"resolved"}`))
		ctx.SetUserValue("id", "7")
		handler.UpdateDisasterStatus(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		repo.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("missing report", func(t *testing.T) {
		repo := new(MockDisasterReader)
		handler := newReportsHandler(repo, nil)

		repo.On("UpdateStatus", mock.Anything, int64(404), "Resolved").
			Return(repository.ErrNotFound)

		ctx := setupTestContext("PATCH", "/reports/disasters/404/status", []byte(`{"state":"closed"}`))
		ctx.SetUserValue("id", "404")
		handler.UpdateDisasterStatus(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})
}

func TestReportsHandler_ListProcessingLog(t *testing.T) {
	t.Run("filters by sender and success", func(t *testing.T) {
		audit := new(MockAuditReader)
		handler := newReportsHandler(nil, audit)

		audit.On("List", mock.Anything, mock.MatchedBy(func(f repository.ProcessingLogFilter) bool {
			return f.SenderPhone != nil && *f.SenderPhone == "+639171234567" &&
				f.Success != nil && *f.Success == false
		})).Return([]*model.ProcessingLogEntry{{ID: 1, Success: false}}, int64(1), nil)

		ctx := setupTestContext("GET", "/reports/audit?sender=%2B639171234567&success=false", nil)
		handler.ListProcessingLog(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response listReportsResponse[*model.ProcessingLogEntry]
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, int64(1), response.Total)

		audit.AssertExpectations(t)
	})
}
