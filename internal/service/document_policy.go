package service

import (
	"fmt"

	"github.com/noah-isme/rab-api/internal/models"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

// DocumentAction names an operation guarded by the document policy.
type DocumentAction string

const (
	ActionView           DocumentAction = "view"
	ActionEdit           DocumentAction = "edit"
	ActionSubmit         DocumentAction = "submit"
	ActionApproveCheck   DocumentAction = "approve_check"
	ActionApproveConfirm DocumentAction = "approve_confirm"
	ActionDelete         DocumentAction = "delete"
	ActionExport         DocumentAction = "export"
)

type documentRelation int

const (
	relationCreator documentRelation = iota + 1
	relationChecker
	relationConfirmer
	relationParticipant
)

func (r documentRelation) holds(doc *models.Document, actorID int64) bool {
	switch r {
	case relationCreator:
		return doc.CreatedByID == actorID
	case relationChecker:
		return doc.CheckedByID == actorID
	case relationConfirmer:
		return doc.ConfirmedByID == actorID
	case relationParticipant:
		return doc.CreatedByID == actorID || doc.CheckedByID == actorID || doc.ConfirmedByID == actorID
	}
	return false
}

// documentRule ties an action to the relationship the actor needs and the
// status the document must be in. An empty From means any status; an empty To
// means the action does not move the document.
type documentRule struct {
	Relation  documentRelation
	From      models.DocumentStatus
	To        models.DocumentStatus
	Forbidden string
}

var documentRules = map[DocumentAction]documentRule{
	ActionView: {
		Relation:  relationParticipant,
		Forbidden: "you do not have access to this document",
	},
	ActionExport: {
		Relation:  relationParticipant,
		Forbidden: "you do not have access to this document",
	},
	ActionEdit: {
		Relation:  relationCreator,
		From:      models.DocumentStatusInProgress,
		Forbidden: "only the creator can edit this document",
	},
	ActionSubmit: {
		Relation:  relationCreator,
		From:      models.DocumentStatusInProgress,
		To:        models.DocumentStatusNeedChecked,
		Forbidden: "only the creator can submit this document",
	},
	ActionApproveCheck: {
		Relation:  relationChecker,
		From:      models.DocumentStatusNeedChecked,
		To:        models.DocumentStatusNeedConfirmed,
		Forbidden: "only the assigned checker can approve this document",
	},
	ActionApproveConfirm: {
		Relation:  relationConfirmer,
		From:      models.DocumentStatusNeedConfirmed,
		To:        models.DocumentStatusApproved,
		Forbidden: "only the assigned confirmer can approve this document",
	},
	ActionDelete: {
		Relation:  relationCreator,
		Forbidden: "only the creator can delete this document",
	},
}

// authorizeDocument evaluates the rule for action. The relationship is checked
// before the status so that outsiders learn nothing about workflow state.
func authorizeDocument(doc *models.Document, actorID int64, action DocumentAction) (documentRule, error) {
	rule, ok := documentRules[action]
	if !ok {
		return documentRule{}, appErrors.Internal(fmt.Errorf("unknown document action %q", action), "document policy is misconfigured")
	}
	if !rule.Relation.holds(doc, actorID) {
		return rule, appErrors.Clone(appErrors.ErrForbidden, rule.Forbidden)
	}
	if rule.From != "" && doc.Status != rule.From {
		return rule, appErrors.Clone(appErrors.ErrBadRequest,
			fmt.Sprintf("document must be %s to %s, current status is %s", rule.From, action.verb(), doc.Status))
	}
	return rule, nil
}

func (a DocumentAction) verb() string {
	switch a {
	case ActionEdit:
		return "be edited"
	case ActionSubmit:
		return "be submitted for check"
	case ActionApproveCheck:
		return "be approved by the checker"
	case ActionApproveConfirm:
		return "be approved by the confirmer"
	}
	return string(a)
}
