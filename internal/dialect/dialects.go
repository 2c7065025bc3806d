package dialect

import (
	"regexp"

	"github.com/koba/ddl2ts/internal/extract"
	"github.com/koba/ddl2ts/internal/generator"
	"github.com/koba/ddl2ts/internal/typemap"
)

const createPrefix = `(?is)\bcreate\s+(?:or\s+replace\s+)?(?:(?:global|local)\s+)?(?:temp(?:orary)?\s+)?(?:unlogged\s+)?`

// regexHeader matches CREATE TABLE up to the column block's opening
// parenthesis.
var regexHeader = regexp.MustCompile(createPrefix + `table\s+(?:if\s+not\s+exists\s+)?(?P<name>` +
	extract.NamePattern + `)\s*\(`)

// balancedHeader builds a header for the Balanced strategy, ending at the
// column block's opening parenthesis.
func balancedHeader(kinds string) *regexp.Regexp {
	return regexp.MustCompile(createPrefix + `(?:external\s+)?(?P<kind>` + kinds + `)\s+(?:if\s+not\s+exists\s+)?(?P<name>` +
		extract.NamePattern + `)(?:\s+on\s+cluster\s+[^\s(]+)?\s*\(`)
}

func skip(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)^(?:` + pattern + `)`)
}

func tail(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^(?:\s+(?:` + pattern + `))+`)
}

const (
	record = "Record<string, any>"
	buffer = "Buffer"
	uint8s = "Uint8Array"
)

var (
	pgTail     = tail(`precision|varying|(?:with|without)\s+(?:local\s+)?time\s+zone`)
	forBitData = regexp.MustCompile(`(?i)\s+for\s+(?:bit|sbcs|mixed)\s+data$`)
)

func init() {
	register(&Dialect{
		Name:    "mysql",
		Aliases: []string{"mariadb"},
		Extract: &extract.Config{
			Header:   regexHeader,
			TypeTail: tail(`unsigned|signed|zerofill`),
			Extras:   extract.TableComment,
		},
		Mapper: &typemap.Mapper{
			Rules: []typemap.Rule{
				typemap.R(`^((tiny|small|medium|big)?int(eger)?|float|double|decimal|dec|numeric|real|fixed|serial)\b`, "number"),
				typemap.R(`^(n?(var)?char|national|(tiny|medium|long)?text|uuid|json|enum|set)\b`, "string"),
				typemap.R(`^(date|datetime|timestamp|time|year)\b`, "string"),
				typemap.R(`^(bool|boolean|bit)\b`, "boolean"),
				typemap.R(`^((var)?binary|(tiny|medium|long)?blob)\b`, buffer),
			},
		},
	})

	register(&Dialect{
		Name:    "postgre",
		Aliases: []string{"postgres", "postgresql", "pg"},
		Extract: &extract.Config{
			Header:        regexHeader,
			TypeTail:      pgTail,
			CreateIndexes: true,
		},
		Mapper: &typemap.Mapper{
			ArraySuffix: true,
			Rules: []typemap.Rule{
				typemap.R(`^(small|big)?serial\d*$`, "number"),
				typemap.R(`^uuid$`, "string"),
				typemap.R(`^jsonb?$`, typemap.Any),
				typemap.R(`^interval\b`, "string"),
				typemap.R(`^(timestamptz|timestamp|date|timetz|time)\b`, "string"),
				typemap.R(`^(character|varchar|char|bpchar|text|citext|name)\b`, "string"),
				typemap.R(`^bool(ean)?$`, "boolean"),
				typemap.R(`^bytea$`, buffer),
				typemap.R(`^(smallint|integer|int[248]?|bigint|float[48]?|double precision|decimal|numeric|real|money|oid)\b`, "number"),
				typemap.R(`^(inet|cidr|macaddr8?|tsvector|xml)$`, "string"),
			},
		},
	})

	register(&Dialect{
		Name: "redshift",
		Extract: &extract.Config{
			Header:     regexHeader,
			Skip:       skip(`partition\s+by\b`),
			TypeTail:   pgTail,
			ShortNames: true,
		},
		Mapper: &typemap.Mapper{
			ArraySuffix: true,
			Rules: []typemap.Rule{
				typemap.R(`^(smallint|int[248]?|integer|bigint|decimal|numeric|real|float[48]?|double precision)\b`, "number"),
				typemap.R(`^(character|char|varchar|nchar|nvarchar|bpchar|text)\b`, "string"),
				typemap.R(`^bool(ean)?$`, "boolean"),
				typemap.R(`^(varbyte|varbinary|binary varying|bytea)\b`, buffer),
				typemap.R(`^(date|timestamptz|timestamp|timetz|time)\b`, "string"),
				typemap.R(`^(super|jsonb?)$`, record),
				typemap.R(`^uuid$`, "string"),
			},
		},
	})

	register(&Dialect{
		Name:    "ibmdb2",
		Aliases: []string{"db2"},
		Extract: &extract.Config{
			Header:     regexHeader,
			Skip:       skip(`period\s+for\b|partition\s+by\b`),
			TypeTail:   tail(`varying|for\s+(?:bit|sbcs|mixed)\s+data`),
			Angles:     true,
			ShortNames: true,
		},
		Mapper: &typemap.Mapper{
			Strip: []*regexp.Regexp{forBitData},
			Wrappers: []typemap.Wrapper{
				{Name: "array", Open: '<', Close: '>', Kind: typemap.Array},
				{Name: "map", Open: '<', Close: '>', Kind: typemap.Map},
				{Name: "struct", Open: '<', Close: '>', Kind: typemap.Record, FieldSep: ':'},
			},
			MapStyle: typemap.MapRecord,
			Rules: []typemap.Rule{
				typemap.R(`^(tinyint|smallint|mediumint|int|bigint|integer)\b`, "number"),
				typemap.R(`^(decimal|dec|numeric|decfloat|real|double|float)\b`, "number"),
				typemap.R(`^(character|char|nchar|nvarchar|varchar|graphic|vargraphic|clob|dbclob|long varchar)\b`, "string"),
				typemap.R(`^(binary|varbinary|blob)\b`, buffer),
				typemap.R(`^(date|timestamp|time)\b`, "string"),
				typemap.R(`^bool(ean)?$`, "boolean"),
				typemap.R(`^(rowid|uuid|uniqueidentifier|xml)$`, "string"),
				typemap.R(`^json$`, record),
				typemap.R(`^cursor$`, typemap.Any),
				typemap.R(`^st_(point|linestring|polygon|geometry)$`, "string"),
			},
		},
	})

	register(&Dialect{
		Name: "athena",
		Extract: &extract.Config{
			Header:   balancedHeader(`table`),
			Strategy: extract.Balanced,
			Angles:   true,
			Extras:   extract.TableComment,
		},
		Mapper: &typemap.Mapper{
			Wrappers: []typemap.Wrapper{
				{Name: "array", Open: '<', Close: '>', Kind: typemap.Array},
				{Name: "map", Open: '<', Close: '>', Kind: typemap.Map},
				{Name: "struct", Open: '<', Close: '>', Kind: typemap.Record, FieldSep: ':'},
			},
			MapStyle: typemap.MapRecord,
			Rules: []typemap.Rule{
				typemap.R(`^(tinyint|smallint|int|integer|bigint|float|double|real|decimal)\b`, "number"),
				typemap.R(`^(char|varchar|string)\b`, "string"),
				typemap.R(`^bool(ean)?$`, "boolean"),
				typemap.R(`^(date|timestamp)\b`, "string"),
				typemap.R(`^(binary|varbinary)$`, buffer),
				typemap.R(`^json$`, record),
			},
		},
	})

	register(&Dialect{
		Name: "bigquery",
		Extract: &extract.Config{
			Header:     balancedHeader(`table`),
			Strategy:   extract.Balanced,
			Angles:     true,
			ShortNames: true,
			Extras:     extract.TableComment,
		},
		Mapper: &typemap.Mapper{
			Wrappers: []typemap.Wrapper{
				{Name: "array", Open: '<', Close: '>', Kind: typemap.Array},
				{Name: "struct", Open: '<', Close: '>', Kind: typemap.Record, FieldSep: ' '},
			},
			MapStyle: typemap.MapRecord,
			Rules: []typemap.Rule{
				typemap.R(`^(int64|int|smallint|integer|bigint|tinyint|byteint|float64|numeric|bignumeric|decimal|bigdecimal)\b`, "number"),
				typemap.R(`^string\b`, "string"),
				typemap.R(`^bytes\b`, buffer),
				typemap.R(`^bool(ean)?$`, "boolean"),
				typemap.R(`^(date|datetime|timestamp|time|interval)$`, "string"),
				typemap.R(`^json$`, record),
				typemap.R(`^struct$`, record),
				typemap.R(`^array$`, "any[]"),
				typemap.R(`^geography$`, "string"),
			},
		},
	})

	register(&Dialect{
		Name: "cassandra",
		Extract: &extract.Config{
			Header:   balancedHeader(`table`),
			Strategy: extract.Balanced,
			Angles:   true,
			Static:   true,
		},
		Mapper: &typemap.Mapper{
			Wrappers: []typemap.Wrapper{
				{Name: "frozen", Open: '<', Close: '>', Kind: typemap.Transparent},
				{Name: "tuple", Open: '<', Close: '>', Kind: typemap.Tuple},
				{Name: "list", Open: '<', Close: '>', Kind: typemap.Array},
				{Name: "set", Open: '<', Close: '>', Kind: typemap.Array},
				{Name: "map", Open: '<', Close: '>', Kind: typemap.Map},
			},
			MapStyle: typemap.MapIndex,
			Rules: []typemap.Rule{
				typemap.R(`^(int|bigint|varint|smallint|tinyint|decimal|double|float|counter)$`, "number"),
				typemap.R(`^(text|varchar|ascii|inet|uuid|timeuuid)$`, "string"),
				typemap.R(`^boolean$`, "boolean"),
				typemap.R(`^(timestamp|date|time|duration)$`, "string"),
				typemap.R(`^blob$`, buffer),
			},
		},
	})

	register(&Dialect{
		Name: "clickhouse",
		Extract: &extract.Config{
			Header:      balancedHeader(`table`),
			Strategy:    extract.Balanced,
			Skip:        skip(`(?:index|projection)\s`),
			Nullability: extract.Never,
			Extras:      extract.TableComment | extract.Engine | extract.OrderBy | extract.PrimaryKeyClause | extract.Settings,
		},
		Mapper: &typemap.Mapper{
			Wrappers: []typemap.Wrapper{
				{Name: "nullable", Open: '(', Close: ')', Kind: typemap.Nullable},
				{Name: "lowcardinality", Open: '(', Close: ')', Kind: typemap.Transparent},
				{Name: "array", Open: '(', Close: ')', Kind: typemap.Array},
				{Name: "map", Open: '(', Close: ')', Kind: typemap.Map},
				{Name: "tuple", Open: '(', Close: ')', Kind: typemap.Tuple},
			},
			MapStyle: typemap.MapIndex,
			Rules: []typemap.Rule{
				typemap.R(`^enum`, "string"),
				typemap.R(`^(u?int|float|decimal)`, "number"),
				typemap.R(`^(string|fixedstring|uuid|datetime|date|ipv4|ipv6)`, "string"),
				typemap.R(`^bool(ean)?$`, "boolean"),
				typemap.R(`^(json|object)$`, record),
			},
		},
		Style: generator.Style{DefaultNote: true},
	})

	register(&Dialect{
		Name:    "cockroachdb",
		Aliases: []string{"cockroach", "crdb"},
		Extract: &extract.Config{
			Header:        regexHeader,
			Skip:          skip(`family\b|inverted\s+index\b`),
			TypeTail:      pgTail,
			InlineIndexes: true,
			CreateIndexes: true,
		},
		Mapper: &typemap.Mapper{
			ArraySuffix: true,
			Rules: []typemap.Rule{
				typemap.R(`^(int[248]?|int64|integer|smallint|bigint|decimal|dec|numeric|float[48]?|real|double precision|(small|big)?serial\d*)\b`, "number"),
				typemap.R(`^bool`, "boolean"),
				typemap.R(`^(varchar|char|character|text|string|name)\b`, "string"),
				typemap.R(`^(timestamptz|timestamp|date|timetz|time|interval)\b`, "string"),
				typemap.R(`^uuid$`, "string"),
				typemap.R(`^jsonb?$`, typemap.Any),
				typemap.R(`^inet$`, "string"),
				typemap.R(`^(bytes|bytea|blob)$`, uint8s),
				typemap.R(`^(bit|varbit)\b`, "number"),
			},
		},
		Style: generator.Style{Indexes: generator.IndexDoc},
	})

	register(&Dialect{
		Name: "duckdb",
		Extract: &extract.Config{
			Header:   regexHeader,
			TypeTail: pgTail,
		},
		Mapper: &typemap.Mapper{
			ArraySuffix: true,
			Wrappers: []typemap.Wrapper{
				{Name: "struct", Open: '(', Close: ')', Kind: typemap.Record, FieldSep: ' '},
				{Name: "map", Open: '(', Close: ')', Kind: typemap.Map},
			},
			MapStyle: typemap.MapRecord,
			Rules: []typemap.Rule{
				typemap.R(`^(tinyint|smallint|int|integer|bigint|hugeint|utinyint|usmallint|uinteger|ubigint|int[1248]|decimal|numeric|float[48]?|double|real)\b`, "number"),
				typemap.R(`^bool(ean)?$`, "boolean"),
				typemap.R(`^(varchar|char|bpchar|text|string|uuid)\b`, "string"),
				typemap.R(`^(date|timestamptz|timestamp|time|interval)\b`, "string"),
				typemap.R(`^(blob|bytea|varbinary)$`, uint8s),
				typemap.R(`^json$`, typemap.Any),
			},
		},
	})

	register(&Dialect{
		Name: "flink",
		Extract: &extract.Config{
			Header:   balancedHeader(`table|view`),
			Strategy: extract.Balanced,
			Skip:     skip(`watermark\s+for\b|period\s+for\b|like\s|[^\s(]+\s+as\s`),
			TypeTail: tail(`(?:with|without)\s+(?:local\s+)?time\s+zone|precision`),
			Angles:   true,
			Extras:   extract.TableComment,
		},
		Mapper: &typemap.Mapper{
			Wrappers: []typemap.Wrapper{
				{Name: "array", Open: '<', Close: '>', Kind: typemap.Array},
				{Name: "multiset", Open: '<', Close: '>', Kind: typemap.Array},
				{Name: "map", Open: '<', Close: '>', Kind: typemap.Map},
				{Name: "row", Open: '<', Close: '>', Kind: typemap.Record, FieldSep: ' '},
				{Name: "row", Open: '(', Close: ')', Kind: typemap.Record, FieldSep: ' '},
			},
			MapStyle: typemap.MapIndex,
			Rules: []typemap.Rule{
				typemap.R(`^(varchar|char|string)\b`, "string"),
				typemap.R(`^boolean\b`, "boolean"),
				typemap.R(`^(tinyint|smallint|int|integer|bigint|float|double|decimal|dec|numeric)\b`, "number"),
				typemap.R(`^(date|timestamp_ltz|timestamp|time|interval)\b`, "string"),
				typemap.R(`^(binary|varbinary|bytes)\b`, buffer),
			},
		},
	})

	register(&Dialect{
		Name: "hive",
		Extract: &extract.Config{
			Header:   balancedHeader(`table`),
			Strategy: extract.Balanced,
			TypeTail: tail(`precision`),
			Angles:   true,
			Extras:   extract.TableComment,
		},
		Mapper: &typemap.Mapper{
			Wrappers: []typemap.Wrapper{
				{Name: "nullable", Open: '<', Close: '>', Kind: typemap.Nullable},
				{Name: "array", Open: '<', Close: '>', Kind: typemap.Array},
				{Name: "map", Open: '<', Close: '>', Kind: typemap.Map},
				{Name: "struct", Open: '<', Close: '>', Kind: typemap.Record, FieldSep: ':'},
				{Name: "uniontype", Open: '<', Close: '>', Kind: typemap.OneOf},
			},
			MapStyle: typemap.MapRecord,
			Rules: []typemap.Rule{
				typemap.R(`^(tinyint|smallint|int|integer|bigint|float|double|decimal|numeric|real)\b`, "number"),
				typemap.R(`^boolean$`, "boolean"),
				typemap.R(`^(char|varchar|string)\b`, "string"),
				typemap.R(`^(timestamp|date|interval)\b`, "string"),
				typemap.R(`^binary$`, uint8s),
			},
		},
		Style: generator.Style{Keyword: "declare interface", Comments: generator.CommentDoc},
	})

	register(&Dialect{
		Name:    "neo4j",
		Aliases: []string{"cypher"},
		Mapper: &typemap.Mapper{
			Wrappers: []typemap.Wrapper{
				{Name: "list", Open: '<', Close: '>', Kind: typemap.Array},
				{Name: "union", Open: '(', Close: ')', Kind: typemap.OneOf},
			},
			Rules: []typemap.Rule{
				typemap.R(`^string$`, "string"),
				typemap.R(`^(integer|float)$`, "number"),
				typemap.R(`^boolean$`, "boolean"),
				typemap.R(`^(date|datetime|localdatetime|time|localtime|duration)$`, "string"),
				typemap.R(`^map$`, record),
			},
		},
	})

	register(&Dialect{
		Name:    "presto",
		Aliases: []string{"trino"},
		Extract: &extract.Config{
			Header:   balancedHeader(`table`),
			Strategy: extract.Balanced,
			TypeTail: tail(`(?:with|without)\s+time\s+zone|day\s+to\s+second|year\s+to\s+month|precision`),
			Extras:   extract.TableComment,
		},
		Mapper: &typemap.Mapper{
			Wrappers: []typemap.Wrapper{
				{Name: "array", Open: '(', Close: ')', Kind: typemap.Array},
				{Name: "map", Open: '(', Close: ')', Kind: typemap.Map},
				{Name: "row", Open: '(', Close: ')', Kind: typemap.Record, FieldSep: ' '},
			},
			MapStyle: typemap.MapIndex,
			Rules: []typemap.Rule{
				typemap.R(`^(tinyint|smallint|int|integer|bigint|real|double|decimal)\b`, "number"),
				typemap.R(`^(varchar|char|string|uuid|ipaddress)\b`, "string"),
				typemap.R(`^boolean$`, "boolean"),
				typemap.R(`^(date|timestamp|time|interval)\b`, "string"),
				typemap.R(`^varbinary$`, buffer),
			},
		},
	})

	register(&Dialect{
		Name: "snowflake",
		Extract: &extract.Config{
			Header: regexHeader,
			Extras: extract.TableComment,
		},
		Mapper: &typemap.Mapper{
			Rules: []typemap.Rule{
				typemap.R(`^(string|varchar|char|character|text|nvarchar|nchar)\b`, "string"),
				typemap.R(`^(number|decimal|numeric|int|integer|bigint|smallint|tinyint|byteint|double|float[48]?|real)\b`, "number"),
				typemap.R(`^boolean$`, "boolean"),
				typemap.R(`^(timestamp(_[lnt]?tz)?|date|datetime|time)\b`, "string"),
				typemap.R(`^(variant|object)$`, record),
				typemap.R(`^array$`, "any[]"),
				typemap.R(`^(binary|varbinary)$`, buffer),
			},
		},
	})

	register(&Dialect{
		Name: "spanner",
		Extract: &extract.Config{
			Header:   balancedHeader(`table`),
			Strategy: extract.Balanced,
			Angles:   true,
		},
		Mapper: &typemap.Mapper{
			Wrappers: []typemap.Wrapper{
				{Name: "array", Open: '<', Close: '>', Kind: typemap.Array},
			},
			Rules: []typemap.Rule{
				typemap.R(`^(int64|float64|float32|numeric)$`, "number"),
				typemap.R(`^bool$`, "boolean"),
				typemap.R(`^(string|json)$`, "string"),
				typemap.R(`^(date|timestamp)$`, "string"),
				typemap.R(`^bytes$`, buffer),
			},
		},
	})

	register(&Dialect{
		Name:    "sqlite",
		Aliases: []string{"sqlite3"},
		Extract: &extract.Config{
			Header:        regexHeader,
			TypeTail:      tail(`precision|varying`),
			Angles:        true,
			CreateIndexes: true,
		},
		Mapper: &typemap.Mapper{
			Wrappers: []typemap.Wrapper{
				{Name: "array", Open: '<', Close: '>', Kind: typemap.Array},
			},
			Rules: []typemap.Rule{
				typemap.R(`^(integer|int|tinyint|smallint|mediumint|bigint|int[28]|unsigned big int)\b`, "number"),
				typemap.R(`^(text|varchar|char|character|nchar|nvarchar|clob|varying character|native character)\b`, "string"),
				typemap.R(`^blob$`, buffer),
				typemap.R(`^(real|float|double|double precision|numeric|decimal)\b`, "number"),
				typemap.R(`^bool(ean)?$`, "boolean"),
				typemap.R(`^(datetime|date|timestamp)\b`, "string"),
			},
		},
		Style: generator.Style{Indexes: generator.IndexConst},
	})

	register(&Dialect{
		Name:    "sqlserver",
		Aliases: []string{"mssql", "tsql"},
		Extract: &extract.Config{
			Header:        balancedHeader(`table`),
			Strategy:      extract.Balanced,
			Skip:          skip(`period\s+for\b`),
			InlineIndexes: true,
			CreateIndexes: true,
		},
		Mapper: &typemap.Mapper{
			Rules: []typemap.Rule{
				typemap.R(`^(int|bigint|smallint|tinyint)$`, "number"),
				typemap.R(`^(varchar|char|text|nvarchar|nchar|ntext|sysname|xml)$`, "string"),
				typemap.R(`^bit$`, "boolean"),
				typemap.R(`^(datetime2?|smalldatetime|datetimeoffset|date|time|timestamp)$`, "string"),
				typemap.R(`^(decimal|numeric|float|real|money|smallmoney)$`, "number"),
				typemap.R(`^uniqueidentifier$`, "string"),
				typemap.R(`^(binary|varbinary|image|rowversion)$`, buffer),
			},
		},
		Style: generator.Style{Indexes: generator.IndexConst},
	})
}
