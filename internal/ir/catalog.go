package ir

// Catalog enumerates every known variant's renderer key (its Kind()) and
// the category it is pinned to, independent of any concrete block
// instance. A block's own Cat() is authoritative at runtime (some
// variants are polymorphic: text/role/message take their category from
// parent context at format time, per spec §3(c)); this catalog documents
// the variant's *default* pinning and lets the rasterizer's dispatch
// table (internal/rasterizer) be built and validated against the full
// set of known kinds without constructing an instance of each.
var Catalog = map[string]Category{
	"separator":               CategoryAlwaysVisible,
	"header":                  CategoryAlwaysVisible,
	"role":                    CategoryUser,
	"newline":                 CategoryAlwaysVisible,
	"new_session":             CategoryAlwaysVisible,
	"message":                 CategoryUser,
	"metadata_section":        CategoryMetadata,
	"system_section":          CategorySystem,
	"tool_defs_section":       CategoryTools,
	"response_metadata_section": CategoryMetadata,
	"response_message":        CategoryAssistant,
	"text_content":            CategoryUser,
	"text_delta":              CategoryAssistant,
	"image":                   CategoryUser,
	"thinking":                CategoryThinking,
	"tracked_content":         CategorySystem,
	"config_content":          CategoryTools,
	"hook_output":             CategorySystem,
	"metadata":                CategoryMetadata,
	"http_headers":            CategoryHeaders,
	"turn_budget":             CategoryBudget,
	"stop_reason":             CategoryMetadata,
	"stream_info":             CategoryMetadata,
	"system_label":            CategorySystem,
	"tool_definitions":        CategoryTools,
	"tool_def":                CategoryTools,
	"skill_def_child":         CategoryTools,
	"agent_def_child":         CategoryTools,
	"tool_use":                CategoryTools,
	"tool_result":             CategoryTools,
	"tool_use_summary":        CategoryTools,
	"stream_tool_use":         CategoryTools,
	"error":                   CategoryAlwaysVisible,
	"proxy_error":             CategoryAlwaysVisible,
	"unknown_type":            CategoryAlwaysVisible,
}

// KnownKind reports whether kind is a recognized catalog entry.
func KnownKind(kind string) bool {
	_, ok := Catalog[kind]
	return ok
}
