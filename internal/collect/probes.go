package collect

import (
	"fmt"
	"strconv"
	"strings"
)

// WaitPlaceholder is replaced with the sampling window, in seconds, in probe SQL.
const WaitPlaceholder = "@wait@"

// Probe is a single named diagnostic query.
type Probe struct {
	Name  string
	Query string

	// Decode, when set, turns the normalized client output into the
	// reported value. It receives the sampling window used for the run.
	Decode func(raw string, wait int) (string, error)
}

// SQL returns the probe query with the sampling window substituted.
func (p Probe) SQL(wait int) string {
	return strings.ReplaceAll(p.Query, WaitPlaceholder, strconv.Itoa(wait))
}

// SupportedExtensions lists the extensions available on the migration target.
var SupportedExtensions = []string{
	"bloom",
	"btree_gin",
	"btree_gist",
	"citext",
	"cube",
	"dict_int",
	"dict_xsyn",
	"fuzzystrmatch",
	"hstore",
	"intarray",
	"isn",
	"lo",
	"ltree",
	"pg_stat_statements",
	"pg_trgm",
	"pgcrypto",
	"pgpcre",
	"pgrouting",
	"pgstattuple",
	"pgvector",
	"plpgsql",
	"postgis",
	"postgis_raster",
	"postgis_sfcgal",
	"postgis_tiger_geocoder",
	"postgis_topology",
	"seg",
	"tablefunc",
	"tcn",
	"timescaledb_toolkit",
	"timescaledb",
	"tsm_system_rows",
	"tsm_system_time",
	"unaccent",
	"uuid-ossp",
}

// Schemas owned by PostgreSQL itself or by TimescaleDB internals.
const (
	systemSchemas    = `'information_schema', 'pg_catalog'`
	timescaleSchemas = `'_timescaledb_internal', '_timescaledb_config', '_timescaledb_catalog', '_timescaledb_cache',
		'timescaledb_experimental', 'timescaledb_information', '_timescaledb_functions'`

	// Hypertable chunks live in _timescaledb_internal, so write rates keep it.
	writeExcludedSchemas = `'_timescaledb_config', '_timescaledb_catalog', '_timescaledb_cache',
		'timescaledb_experimental', 'timescaledb_information', '_timescaledb_functions', ` + systemSchemas
)

// Temporary tables holding rate snapshots. They live only for one session.
const (
	writeSnapshotTable = "_mig_eval_t"
	walSnapshotTable   = "_mig_eval_w"
)

var probes = []Probe{
	{
		Name:  "PostgreSQL version",
		Query: `select version()`,
	},
	{
		Name:  "Database size",
		Query: `select pg_size_pretty(pg_database_size(current_database()))`,
	},
	{
		Name: "Num tables",
		Query: `select count(*) from information_schema.tables
			where table_type = 'BASE TABLE' and table_schema not in (` + systemSchemas + `)`,
	},
	{
		Name: "Num regular PostgreSQL tables excl. Hypertables",
		Query: `select count(*) from information_schema.tables
			where
				table_type = 'BASE TABLE' and
				table_schema not in (` + timescaleSchemas + `, ` + systemSchemas + `) and
				not exists (
					select 1 from timescaledb_information.hypertables ht
					where ht.hypertable_schema = table_schema and ht.hypertable_name = table_name)`,
	},
	{
		Name:  "Num declarative partitions",
		Query: `select count(*) from pg_partitioned_table`,
	},
	{
		Name:  "Non-standard tablespaces",
		Query: `select array_agg(spcname) from pg_tablespace where spcname not in ('pg_default', 'pg_global')`,
	},
	{
		Name:  "Current database",
		Query: `select current_database()`,
	},
	{
		Name: "Other databases",
		Query: `select array_agg(datname) from pg_database
			where datname not in ('template0', 'template1', 'rdsadmin', 'tsadmin', current_database())`,
	},
	{
		Name: "Schemas",
		Query: `select array_agg(schema_name) from information_schema.schemata
			where schema_name not in (` + systemSchemas + `, ` + timescaleSchemas + `)`,
	},
	{
		Name:  "TimescaleDB version",
		Query: `select extversion from pg_extension where extname = 'timescaledb'`,
	},
	{
		Name:  "Num TimescaleDB Hypertables",
		Query: `select count(*) from timescaledb_information.hypertables`,
	},
	{
		Name:  "Num TimescaleDB Continuous Aggregates",
		Query: `select count(*) from timescaledb_information.continuous_aggregates`,
	},
	{
		Name:  "Num old partial-form Continuous Aggregates",
		Query: `select count(*) from timescaledb_information.continuous_aggregates where not finalized`,
	},
	{
		Name:  "Num TimescaleDB space dimensions",
		Query: `select count(*) from timescaledb_information.dimensions where dimension_type = 'Space'`,
	},
	{
		Name: "TimescaleDB extension schema",
		Query: `select n.nspname from pg_extension e
			join pg_namespace n on e.extnamespace = n.oid
			where extname = 'timescaledb'`,
	},
	{
		Name: "TimescaleDB features",
		Query: `select array_agg(feature) from (
				select 'hypertables' as feature, count(*) > 0 as uses_feature
				from timescaledb_information.hypertables
			union all
				select 'continuous_aggregates', count(*) > 0
				from timescaledb_information.continuous_aggregates
			union all
				select 'retention', count(*) > 0
				from timescaledb_information.jobs where application_name like 'Retention Policy%'
			union all
				select 'compression', count(*) > 0
				from timescaledb_information.compression_settings
			union all
				select 'background_jobs', count(*) > 0
				from timescaledb_information.jobs where job_id >= 1000
			) a
			where uses_feature`,
	},
	{
		Name:  "Unsupported extensions in Timescale Cloud",
		Query: unsupportedExtensionsSQL(SupportedExtensions),
	},
	{
		Name:  "Do tables have generated columns",
		Query: `select exists(select 1 from information_schema.columns where is_generated = 'ALWAYS')`,
	},
	{
		Name: "Do tables attributes have NaN, Infinity or -Infinity*",
		Query: `select exists (
				select 1 from pg_stats
				where
					schemaname not in (` + timescaleSchemas + `, ` + systemSchemas + `) and
					(
						exists (
							select 1 from unnest(most_common_vals::text::text[]) as v
							where v in ('NaN', 'Infinity', '-Infinity'))
						or exists (
							select 1 from unnest(histogram_bounds::text::text[]) as h
							where h in ('NaN', 'Infinity', '-Infinity'))
					)
			)`,
	},
	{
		Name:   "Rate of inserts, updates, deletes and transactions (per sec)",
		Query:  writeRateSQL,
		Decode: DecodeWriteRates,
	},
	{
		Name:   "WAL activity",
		Query:  walRateSQL,
		Decode: DecodeWALRates,
	},
}

// Probes returns the probe table in report order.
// The returned slice is a copy; callers may reorder or filter it freely.
func Probes() []Probe {
	out := make([]Probe, len(probes))
	copy(out, probes)
	return out
}

func unsupportedExtensionsSQL(allowed []string) string {
	quoted := make([]string, 0, len(allowed))
	for _, ext := range allowed {
		quoted = append(quoted, quoteLiteral(ext))
	}
	return fmt.Sprintf(`select json_agg(json_build_object(extname, extversion)) from pg_extension
			where extname not in (%s)`, strings.Join(quoted, ", "))
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Each rate script runs in one session: the snapshots, the server-side
// sleep and the final read must share the temporary table.
var writeRateSQL = `set client_min_messages = warning;
drop table if exists pg_temp.` + writeSnapshotTable + `;
create temp table ` + writeSnapshotTable + ` (
	n int, n_tup_ins numeric, n_tup_upd numeric, n_tup_del numeric, xact_commit numeric
);
begin;
` + writeSnapshotInsert(1) + `
commit;
select pg_sleep(` + WaitPlaceholder + `);
begin;
` + writeSnapshotInsert(2) + `
commit;
select n, n_tup_ins, n_tup_upd, n_tup_del, xact_commit from ` + writeSnapshotTable + ` order by n;`

func writeSnapshotInsert(n int) string {
	return fmt.Sprintf(`insert into %s
	select %d, sum(u.n_tup_ins), sum(u.n_tup_upd), sum(u.n_tup_del), d.xact_commit
	from pg_stat_user_tables u join pg_stat_database d on true
	where
		u.relname <> '%s' and
		u.schemaname not in (%s) and
		d.datname = current_database()
	group by d.xact_commit;`, writeSnapshotTable, n, writeSnapshotTable, writeExcludedSchemas)
}

var walRateSQL = `set client_min_messages = warning;
drop table if exists pg_temp.` + walSnapshotTable + `;
create temp table ` + walSnapshotTable + ` (n int, wal_records numeric, wal_bytes numeric);
begin;
insert into ` + walSnapshotTable + ` select 1, wal_records, wal_bytes from pg_stat_wal;
commit;
select pg_sleep(` + WaitPlaceholder + `);
begin;
insert into ` + walSnapshotTable + ` select 2, wal_records, wal_bytes from pg_stat_wal;
commit;
select n, wal_records, wal_bytes from ` + walSnapshotTable + ` order by n;`
