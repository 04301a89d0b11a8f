package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rab-api/internal/models"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

const (
	creatorID   int64 = 1
	checkerID   int64 = 2
	confirmerID int64 = 3
	outsiderID  int64 = 9
)

func policyDoc(status models.DocumentStatus) *models.Document {
	return &models.Document{ID: 10, Status: status, CreatedByID: creatorID, CheckedByID: checkerID, ConfirmedByID: confirmerID}
}

func TestAuthorizeDocumentMatrix(t *testing.T) {
	cases := []struct {
		name   string
		status models.DocumentStatus
		actor  int64
		action DocumentAction
		code   string
	}{
		{"creator edits in progress", models.DocumentStatusInProgress, creatorID, ActionEdit, ""},
		{"creator edits after submit", models.DocumentStatusNeedChecked, creatorID, ActionEdit, appErrors.ErrBadRequest.Code},
		{"checker cannot edit", models.DocumentStatusInProgress, checkerID, ActionEdit, appErrors.ErrForbidden.Code},
		{"creator submits", models.DocumentStatusInProgress, creatorID, ActionSubmit, ""},
		{"creator resubmits", models.DocumentStatusNeedChecked, creatorID, ActionSubmit, appErrors.ErrBadRequest.Code},
		{"checker approves", models.DocumentStatusNeedChecked, checkerID, ActionApproveCheck, ""},
		{"confirmer cannot check", models.DocumentStatusNeedChecked, confirmerID, ActionApproveCheck, appErrors.ErrForbidden.Code},
		{"checker approves too early", models.DocumentStatusInProgress, checkerID, ActionApproveCheck, appErrors.ErrBadRequest.Code},
		{"confirmer approves", models.DocumentStatusNeedConfirmed, confirmerID, ActionApproveConfirm, ""},
		{"confirmer skips check", models.DocumentStatusNeedChecked, confirmerID, ActionApproveConfirm, appErrors.ErrBadRequest.Code},
		{"creator cannot confirm", models.DocumentStatusNeedConfirmed, creatorID, ActionApproveConfirm, appErrors.ErrForbidden.Code},
		{"outsider cannot view", models.DocumentStatusApproved, outsiderID, ActionView, appErrors.ErrForbidden.Code},
		{"confirmer views", models.DocumentStatusInProgress, confirmerID, ActionView, ""},
		{"checker exports", models.DocumentStatusApproved, checkerID, ActionExport, ""},
		{"creator deletes approved", models.DocumentStatusApproved, creatorID, ActionDelete, ""},
		{"checker cannot delete", models.DocumentStatusInProgress, checkerID, ActionDelete, appErrors.ErrForbidden.Code},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := authorizeDocument(policyDoc(tc.status), tc.actor, tc.action)
			if tc.code == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
}

func TestAuthorizeDocumentRelationBeforeStatus(t *testing.T) {
	_, err := authorizeDocument(policyDoc(models.DocumentStatusApproved), outsiderID, ActionSubmit)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthorizeDocumentTransitionTargets(t *testing.T) {
	rule, err := authorizeDocument(policyDoc(models.DocumentStatusNeedChecked), checkerID, ActionApproveCheck)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusNeedChecked, rule.From)
	assert.Equal(t, models.DocumentStatusNeedConfirmed, rule.To)
}

func TestAuthorizeDocumentUnknownAction(t *testing.T) {
	_, err := authorizeDocument(policyDoc(models.DocumentStatusInProgress), creatorID, DocumentAction("publish"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
