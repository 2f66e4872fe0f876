package db

import "strings"

// TagFilter builds an FT.SEARCH TAG pre-filter clause for an exact value.
func TagFilter(field, value string) string {
	return "@" + field + ":{" + tagEscaper.Replace(value) + "}"
}

// tagEscaper escapes RediSearch TAG query syntax characters.
var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
