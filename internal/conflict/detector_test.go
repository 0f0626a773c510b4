package conflict

import (
	"testing"

	"github.com/ppiankov/reconcilia/internal/model"
)

func claim(id, docID, topicID, subject string, v model.Value) model.Claim {
	return model.Claim{ID: id, DocumentID: docID, TopicID: topicID, Subject: subject, Value: v}
}

func defaultDetector() *Detector {
	return New(model.DefaultConfig())
}

func TestDetect_DisagreementWithinTopic(t *testing.T) {
	claims := []model.Claim{
		claim("clm-000", "doc-000", "topic-00", "password_reset.link_expiry", model.NumberValue(900, "s")),
		claim("clm-001", "doc-001", "topic-00", "password_reset.link_expiry", model.NumberValue(3600, "s")),
	}

	records := defaultDetector().Detect(claims)
	if len(records) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(records))
	}
	rec := records[0]
	if rec.Subject != "password_reset.link_expiry" {
		t.Errorf("expected subject password_reset.link_expiry, got %s", rec.Subject)
	}
	if rec.TopicID != "topic-00" {
		t.Errorf("expected topic-00, got %s", rec.TopicID)
	}
	if rec.Resolution != model.ResolutionUnresolved {
		t.Errorf("expected unresolved at detection time, got %s", rec.Resolution)
	}
	if len(rec.ClaimIDs) != 2 || rec.ClaimIDs[0] != "clm-000" || rec.ClaimIDs[1] != "clm-001" {
		t.Errorf("expected claim ids in ingestion order, got %v", rec.ClaimIDs)
	}
}

func TestDetect_AgreementIsNoConflict(t *testing.T) {
	claims := []model.Claim{
		claim("clm-000", "doc-000", "topic-00", "session.timeout", model.NumberValue(1800, "s")),
		claim("clm-001", "doc-001", "topic-00", "session.timeout", model.NumberValue(1800, "s")),
	}
	if records := defaultDetector().Detect(claims); len(records) != 0 {
		t.Errorf("expected no conflicts for agreeing claims, got %v", records)
	}
}

func TestDetect_RestatementWithinDocumentIgnored(t *testing.T) {
	// The same document stating two values is noise, not a conflict; only
	// the first claim per document represents it.
	claims := []model.Claim{
		claim("clm-000", "doc-000", "topic-00", "trial.length", model.NumberValue(14*86400, "s")),
		claim("clm-001", "doc-000", "topic-00", "trial.length", model.NumberValue(30*86400, "s")),
	}
	if records := defaultDetector().Detect(claims); len(records) != 0 {
		t.Errorf("expected no conflict from a single document, got %v", records)
	}
}

func TestDetect_DifferentTopicsNeverCompared(t *testing.T) {
	claims := []model.Claim{
		claim("clm-000", "doc-000", "topic-00", "session.timeout", model.NumberValue(1800, "s")),
		claim("clm-001", "doc-001", "topic-01", "session.timeout", model.NumberValue(3600, "s")),
	}
	if records := defaultDetector().Detect(claims); len(records) != 0 {
		t.Errorf("expected no cross-topic conflict, got %v", records)
	}
}

func TestDetect_DifferentSubjectsNeverCompared(t *testing.T) {
	claims := []model.Claim{
		claim("clm-000", "doc-000", "topic-00", "storage.limit.free", model.NumberValue(5368709120, "bytes")),
		claim("clm-001", "doc-001", "topic-00", "storage.limit.pro", model.NumberValue(107374182400, "bytes")),
	}
	if records := defaultDetector().Detect(claims); len(records) != 0 {
		t.Errorf("expected no conflict across distinct subjects, got %v", records)
	}
}

func TestDetect_RelativeToleranceAbsorbsSmallDrift(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Conflicts.RelativeTolerance = 0.02
	d := New(cfg)

	claims := []model.Claim{
		claim("clm-000", "doc-000", "topic-00", "api.rate_limit", model.NumberValue(100, "req/min")),
		claim("clm-001", "doc-001", "topic-00", "api.rate_limit", model.NumberValue(101, "req/min")),
	}
	if records := d.Detect(claims); len(records) != 0 {
		t.Errorf("expected 1%% drift absorbed by tolerance, got %v", records)
	}

	claims[1].Value = model.NumberValue(150, "req/min")
	if records := d.Detect(claims); len(records) != 1 {
		t.Errorf("expected conflict beyond tolerance, got %v", records)
	}
}

func TestDetect_TextAndBoolDisagreement(t *testing.T) {
	claims := []model.Claim{
		claim("clm-000", "doc-000", "topic-00", "password_reset.method", model.TextValue("sms_code")),
		claim("clm-001", "doc-001", "topic-00", "password_reset.method", model.TextValue("magic_link")),
		claim("clm-002", "doc-000", "topic-00", "sso.available", model.BoolValue(true)),
		claim("clm-003", "doc-001", "topic-00", "sso.available", model.BoolValue(false)),
	}

	records := defaultDetector().Detect(claims)
	if len(records) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(records))
	}
	// Records come out sorted by subject.
	if records[0].Subject != "password_reset.method" || records[1].Subject != "sso.available" {
		t.Errorf("expected subject-sorted records, got %s, %s", records[0].Subject, records[1].Subject)
	}
}

func TestDetect_SubjectDisputedInTwoTopicsIsOneRecord(t *testing.T) {
	// Disagreement in two separate topic groups still yields a single
	// record for the subject, covering every disputed claim.
	claims := []model.Claim{
		claim("clm-000", "doc-000", "topic-00", "session.timeout", model.NumberValue(900, "s")),
		claim("clm-001", "doc-001", "topic-00", "session.timeout", model.NumberValue(1800, "s")),
		claim("clm-002", "doc-002", "topic-01", "session.timeout", model.NumberValue(3600, "s")),
		claim("clm-003", "doc-003", "topic-01", "session.timeout", model.NumberValue(7200, "s")),
	}

	records := defaultDetector().Detect(claims)
	if len(records) != 1 {
		t.Fatalf("expected at most one record per subject, got %d: %v", len(records), records)
	}
	rec := records[0]
	if len(rec.ClaimIDs) != 4 {
		t.Fatalf("expected all 4 disputed claims merged, got %v", rec.ClaimIDs)
	}
	for i, want := range []string{"clm-000", "clm-001", "clm-002", "clm-003"} {
		if rec.ClaimIDs[i] != want {
			t.Errorf("claim %d: expected %s, got %s", i, want, rec.ClaimIDs[i])
		}
	}
	if rec.TopicID != "topic-00" {
		t.Errorf("expected the first disagreeing topic recorded, got %s", rec.TopicID)
	}
}

func TestDetect_AgreeingTopicGroupExcludedFromRecord(t *testing.T) {
	// topic-00 disagrees; topic-01 agrees internally. Only the disputed
	// group's claims belong in the record.
	claims := []model.Claim{
		claim("clm-000", "doc-000", "topic-00", "session.timeout", model.NumberValue(900, "s")),
		claim("clm-001", "doc-001", "topic-00", "session.timeout", model.NumberValue(1800, "s")),
		claim("clm-002", "doc-002", "topic-01", "session.timeout", model.NumberValue(3600, "s")),
		claim("clm-003", "doc-003", "topic-01", "session.timeout", model.NumberValue(3600, "s")),
	}

	records := defaultDetector().Detect(claims)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if len(records[0].ClaimIDs) != 2 || records[0].ClaimIDs[0] != "clm-000" || records[0].ClaimIDs[1] != "clm-001" {
		t.Errorf("expected only the disputed group's claims, got %v", records[0].ClaimIDs)
	}
}

func TestDetect_ThreeWayDisagreementIsOneRecord(t *testing.T) {
	claims := []model.Claim{
		claim("clm-000", "doc-000", "topic-00", "session.timeout", model.NumberValue(900, "s")),
		claim("clm-001", "doc-001", "topic-00", "session.timeout", model.NumberValue(1800, "s")),
		claim("clm-002", "doc-002", "topic-00", "session.timeout", model.NumberValue(1800, "s")),
	}
	records := defaultDetector().Detect(claims)
	if len(records) != 1 {
		t.Fatalf("expected a single record for the subject, got %d", len(records))
	}
	if len(records[0].ClaimIDs) != 3 {
		t.Errorf("expected all 3 representatives listed, got %v", records[0].ClaimIDs)
	}
}
