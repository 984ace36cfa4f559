package item

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/civic-cloud/lostfound/internal/domain"
)

func TestUnmarshal_TypedFields(t *testing.T) {
	data := []byte(`{
		"id": "abc-123",
		"createUserPlace": "札幌駅",
		"memo": "改札付近で拾得",
		"keyword": ["折りたたみ", "黒"],
		"color": {"id": "c01", "name": "黒", "url": "https://img.example/c01.png"},
		"isChecked": false
	}`)

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if r.ID != "abc-123" {
		t.Errorf("ID = %q", r.ID)
	}
	if r.CreateUserPlace != "札幌駅" {
		t.Errorf("CreateUserPlace = %q", r.CreateUserPlace)
	}
	if r.Memo == nil || *r.Memo != "改札付近で拾得" {
		t.Errorf("Memo = %v", r.Memo)
	}
	if len(r.Keyword) != 2 {
		t.Errorf("Keyword = %v", r.Keyword)
	}
	if r.Color == nil || r.Color.Name != "黒" {
		t.Errorf("Color = %v", r.Color)
	}
	if r.IsChecked == nil || *r.IsChecked {
		t.Errorf("IsChecked = %v", r.IsChecked)
	}
	if r.Extra != nil {
		t.Errorf("expected no extra fields, got %v", r.Extra)
	}
}

func TestUnmarshal_ExtraFieldsPreserved(t *testing.T) {
	data := []byte(`{"id":"x","createUserPlace":"小樽市","stationCode":42,"note":{"a":1}}`)

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(r.Extra) != 2 {
		t.Fatalf("Extra = %v, want 2 entries", r.Extra)
	}
	if string(r.Extra["stationCode"]) != "42" {
		t.Errorf("stationCode = %s", r.Extra["stationCode"])
	}
}

func TestMarshal_RoundTripExtras(t *testing.T) {
	in := []byte(`{"id":"x","createUserPlace":"小樽市","stationCode":42}`)

	var r Record
	if err := json.Unmarshal(in, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back map[string]json.RawMessage
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal round-trip: %v", err)
	}
	if string(back["stationCode"]) != "42" {
		t.Errorf("stationCode after round-trip = %s", back["stationCode"])
	}
	if !bytes.Equal(back["id"], []byte(`"x"`)) {
		t.Errorf("id after round-trip = %s", back["id"])
	}
}

func TestMarshal_TypedFieldWinsOverExtra(t *testing.T) {
	memo := "typed"
	r := Record{
		ID:              "x",
		CreateUserPlace: "小樽市",
		Memo:            &memo,
		Extra:           map[string]json.RawMessage{"memo": json.RawMessage(`"stale"`)},
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]json.RawMessage
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(back["memo"]) != `"typed"` {
		t.Errorf("memo = %s, want typed field to win", back["memo"])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid", Record{ID: "a", CreateUserPlace: "函館市"}, false},
		{"missing id", Record{CreateUserPlace: "函館市"}, true},
		{"missing place", Record{ID: "a"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if tc.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestMerge_ShallowOverwrite(t *testing.T) {
	current := map[string]json.RawMessage{
		"id":              json.RawMessage(`"a"`),
		"createUserPlace": json.RawMessage(`"室蘭市"`),
		"memo":            json.RawMessage(`"old"`),
		"color":           json.RawMessage(`{"id":"c01","name":"黒","url":"u"}`),
	}
	updates := map[string]json.RawMessage{
		"memo":  json.RawMessage(`"new"`),
		"color": json.RawMessage(`{"id":"c02"}`),
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	merged := Merge(current, updates, now)

	if string(merged["memo"]) != `"new"` {
		t.Errorf("memo = %s", merged["memo"])
	}
	// Shallow: the supplied nested object replaces the whole object.
	if string(merged["color"]) != `{"id":"c02"}` {
		t.Errorf("color = %s", merged["color"])
	}
	if string(merged["createUserPlace"]) != `"室蘭市"` {
		t.Errorf("createUserPlace = %s", merged["createUserPlace"])
	}
	if string(merged["dateUpdated"]) != `"2025-06-01T12:00:00Z"` {
		t.Errorf("dateUpdated = %s", merged["dateUpdated"])
	}
}

func TestMerge_ProtectedFields(t *testing.T) {
	current := map[string]json.RawMessage{
		"id":              json.RawMessage(`"a"`),
		"createUserPlace": json.RawMessage(`"室蘭市"`),
	}
	updates := map[string]json.RawMessage{
		"id":              json.RawMessage(`"b"`),
		"createUserPlace": json.RawMessage(`"北見市"`),
	}

	merged := Merge(current, updates, time.Now())

	if string(merged["id"]) != `"a"` {
		t.Errorf("id = %s, want immutable", merged["id"])
	}
	if string(merged["createUserPlace"]) != `"室蘭市"` {
		t.Errorf("createUserPlace = %s, want immutable", merged["createUserPlace"])
	}
}

func TestMerge_UnsuppliedFieldsRetained(t *testing.T) {
	current := map[string]json.RawMessage{
		"id":              json.RawMessage(`"a"`),
		"createUserPlace": json.RawMessage(`"室蘭市"`),
		"contact":         json.RawMessage(`"011-000-0000"`),
	}

	merged := Merge(current, map[string]json.RawMessage{"memo": json.RawMessage(`"m"`)}, time.Now())

	if string(merged["contact"]) != `"011-000-0000"` {
		t.Errorf("contact = %s, want retained", merged["contact"])
	}
}
