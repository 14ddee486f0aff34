package blobs

import "testing"

func TestExistingTokenFirstOfList(t *testing.T) {
	md := map[string]string{tokenMetadataKey: " abc , def"}
	if got := ExistingToken(md); got != "abc" {
		t.Errorf("token = %q, want abc", got)
	}
}

func TestExistingTokenLegacyKey(t *testing.T) {
	md := map[string]string{legacyTokenMetadataKey: "legacy"}
	if got := ExistingToken(md); got != "legacy" {
		t.Errorf("token = %q, want legacy", got)
	}
}

func TestExistingTokenPrefersCurrentKey(t *testing.T) {
	md := map[string]string{
		tokenMetadataKey:       "current",
		legacyTokenMetadataKey: "legacy",
	}
	if got := ExistingToken(md); got != "current" {
		t.Errorf("token = %q, want current", got)
	}
}

func TestExistingTokenAbsent(t *testing.T) {
	if got := ExistingToken(nil); got != "" {
		t.Errorf("token = %q, want empty", got)
	}
	if got := ExistingToken(map[string]string{tokenMetadataKey: " , "}); got != "" {
		t.Errorf("token = %q, want empty", got)
	}
}
