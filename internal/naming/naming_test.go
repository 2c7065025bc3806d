package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"users", "Users"},
		{"my_table_name", "MyTableName"},
		{"schema.my_table_name", "SchemaMyTableName"},
		{"analytics.events.page_view", "AnalyticsEventsPageView"},
		{"_hidden", "_hidden"},
		{"order_2024", "Order_2024"},
		{"a__b", "A_B"},
		{"trailing_", "Trailing_"},
		{"", ""},
		{"ünicode_ärger", "ÜnicodeÄrger"},
		{"kebab-case", "Kebab-case"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	assert.Equal(t, Normalize("db.user_profile"), Normalize("db.user_profile"))
}

func TestSingular(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"users", "User"},
		{"app.user_accounts", "AppUserAccount"},
		{"categories", "Category"},
		{"person", "Person"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Singular(tt.input))
		})
	}
}
