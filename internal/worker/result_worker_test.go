package worker

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/talentgate/assessment-backend/internal/model"
)

func TestToResultRow(t *testing.T) {
	valid := model.SubmissionResult{
		CandidateID: uuid.NewString(),
		SessionID:   uuid.NewString(),
		Status:      model.ResultReview,
		Score:       61.5,
	}

	row, err := toResultRow(valid)
	if err != nil {
		t.Fatalf("valid result: %v", err)
	}
	if row.answers != "{}" {
		t.Errorf("answers = %s, want {}", row.answers)
	}
	if row.createdAt.IsZero() {
		t.Error("created_at not defaulted")
	}

	alias := valid
	alias.Status = "fail"
	row, err = toResultRow(alias)
	if err != nil || row.status != model.ResultReject {
		t.Errorf("fail alias: status %q, err %v; want reject", row.status, err)
	}

	bad := []model.SubmissionResult{
		{CandidateID: "x", SessionID: valid.SessionID, Status: model.ResultPass},
		{CandidateID: valid.CandidateID, SessionID: "", Status: model.ResultPass},
		{CandidateID: valid.CandidateID, SessionID: valid.SessionID, Status: "maybe"},
	}
	for i, r := range bad {
		if _, err := toResultRow(r); !errors.Is(err, errSkip) {
			t.Errorf("case %d: error = %v, want errSkip", i, err)
		}
	}
}

func TestParseIntegrityIDs(t *testing.T) {
	cid := uuid.NewString()

	row, err := parseIntegrityIDs(model.IntegrityRecord{CandidateID: cid})
	if err != nil {
		t.Fatalf("no session id: %v", err)
	}
	if row.sessionID != nil {
		t.Error("empty session id should map to NULL")
	}

	if _, err := parseIntegrityIDs(model.IntegrityRecord{CandidateID: cid, SessionID: "nope"}); !errors.Is(err, errSkip) {
		t.Errorf("bad session id error = %v", err)
	}
}
