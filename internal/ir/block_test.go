package ir

import (
	"testing"

	"github.com/cc-dump/ccdump/internal/testutil"
)

func TestNewBlockIDIsMonotonicAndUnique(t *testing.T) {
	a := NewBlockID()
	b := NewBlockID()
	testutil.RequireTrue(t, b > a, "successive block ids increase")
}

func TestNewHeaderAssignsCategoryAndFreshID(t *testing.T) {
	h1 := NewHeader(CategoryUser)
	h2 := NewHeader(CategoryUser)
	testutil.AssertEqual(t, CategoryUser, h1.Cat(), "header carries the given category")
	testutil.RequireTrue(t, h1.ID() != h2.ID(), "two headers never share a block id")
}

func TestCategoryStringCoversEveryConstant(t *testing.T) {
	cases := map[Category]string{
		CategoryMetadata:      "METADATA",
		CategorySystem:        "SYSTEM",
		CategoryUser:          "USER",
		CategoryAssistant:     "ASSISTANT",
		CategoryTools:         "TOOLS",
		CategoryThinking:      "THINKING",
		CategoryBudget:        "BUDGET",
		CategoryHeaders:       "HEADERS",
		CategoryAlwaysVisible: "ALWAYS_VISIBLE",
	}
	for cat, want := range cases {
		testutil.AssertEqual(t, want, cat.String(), "category string for "+want)
	}
	testutil.AssertEqual(t, "UNKNOWN", Category(999).String(), "unrecognized category stringifies as UNKNOWN")
}

func TestTextContentBlockSatisfiesBlockInterface(t *testing.T) {
	b := NewTextContentBlock(CategoryAssistant, "hello")
	var block Block = b
	testutil.AssertEqual(t, "text_content", block.Kind(), "text_content block reports its kind")
	testutil.AssertEqual(t, CategoryAssistant, block.Cat(), "category carried through the interface")
	testutil.RequireTrue(t, block.ID() > 0, "block id is assigned")
}

func TestErrorBlockCarriesCodeAndReason(t *testing.T) {
	b := NewErrorBlock(502, "upstream unreachable")
	testutil.AssertEqual(t, 502, b.Code, "error code stored")
	testutil.AssertEqual(t, "upstream unreachable", b.Reason, "error reason stored")
	testutil.AssertEqual(t, "error", b.Kind(), "error block kind")
}

func TestProxyErrorBlockCarriesDescription(t *testing.T) {
	b := NewProxyErrorBlock("sse_parse: unexpected EOF")
	testutil.AssertEqual(t, "sse_parse: unexpected EOF", b.Description, "proxy_error description stored")
	testutil.AssertEqual(t, "proxy_error", b.Kind(), "proxy_error block kind")
}
