package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/openva-pipeline/vapipe/internal/model"
)

// The schema keeps the transfer database's historical table and column
// names so operator tooling built against the original pipeline still maps.
const schema = `
CREATE TABLE IF NOT EXISTS Cipher_Meta (
	id    INTEGER PRIMARY KEY CHECK (id = 1),
	salt  BLOB NOT NULL,
	probe BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS Pipeline_Conf (
	algorithmMetadataCode TEXT NOT NULL,
	codSource             TEXT NOT NULL,
	algorithm             TEXT NOT NULL,
	workingDirectory      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS Algorithm_Metadata_Options (
	code TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS ODK_Conf (
	odkID            TEXT,
	odkURL           TEXT NOT NULL,
	odkUser          TEXT NOT NULL,
	odkPassword      BLOB NOT NULL,
	odkFormID        TEXT NOT NULL,
	odkLastRun       TEXT NOT NULL,
	odkLastRunResult TEXT NOT NULL,
	odkUseCentral    TEXT NOT NULL,
	odkProjectNumber TEXT
);

CREATE TABLE IF NOT EXISTS InterVA_Conf (
	version TEXT NOT NULL,
	HIV     TEXT NOT NULL,
	Malaria TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS Advanced_InterVA_Conf (
	directory      TEXT NOT NULL,
	filename       TEXT NOT NULL,
	output         TEXT NOT NULL,
	append         TEXT NOT NULL,
	groupcode      TEXT NOT NULL,
	replicate      TEXT NOT NULL,
	replicate_bug1 TEXT NOT NULL,
	replicate_bug2 TEXT NOT NULL,
	write          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS InSilicoVA_Conf (
	data_type TEXT NOT NULL,
	Nsim      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS Advanced_InSilicoVA_Conf (
	isNumeric                TEXT NOT NULL,
	updateCondProb           TEXT NOT NULL,
	keepProbbase_level       TEXT NOT NULL,
	CondProb                 TEXT NOT NULL,
	CondProbNum              TEXT NOT NULL,
	datacheck                TEXT NOT NULL,
	datacheck_missing        TEXT NOT NULL,
	warning_write            TEXT NOT NULL,
	directory                TEXT NOT NULL,
	external_sep             TEXT NOT NULL,
	thin                     TEXT NOT NULL,
	burnin                   TEXT NOT NULL,
	auto_length              TEXT NOT NULL,
	conv_csmf                TEXT NOT NULL,
	jump_scale               TEXT NOT NULL,
	levels_prior             TEXT NOT NULL,
	levels_strength          TEXT NOT NULL,
	trunc_min                TEXT NOT NULL,
	trunc_max                TEXT NOT NULL,
	subpop                   TEXT NOT NULL,
	java_option              TEXT NOT NULL,
	seed                     TEXT NOT NULL,
	phy_code                 TEXT NOT NULL,
	phy_cat                  TEXT NOT NULL,
	phy_unknown              TEXT NOT NULL,
	phy_external             TEXT NOT NULL,
	phy_debias               TEXT NOT NULL,
	exclude_impossible_cause TEXT NOT NULL,
	no_is_missing            TEXT NOT NULL,
	indiv_CI                 TEXT NOT NULL,
	groupcode                TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS SmartVA_Conf (
	country  TEXT NOT NULL,
	hiv      TEXT NOT NULL,
	malaria  TEXT NOT NULL,
	hce      TEXT NOT NULL,
	freetext TEXT NOT NULL,
	figures  TEXT NOT NULL,
	language TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS SmartVA_Country (
	name   TEXT NOT NULL,
	abbrev TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS DHIS_Conf (
	dhisURL      TEXT NOT NULL,
	dhisUser     TEXT NOT NULL,
	dhisPassword BLOB NOT NULL,
	dhisOrgUnit  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS COD_Codes_DHIS (
	codName   TEXT NOT NULL,
	codCode   TEXT NOT NULL,
	codSource TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS VA_Storage (
	id          TEXT PRIMARY KEY,
	outcome     TEXT NOT NULL,
	record      BLOB NOT NULL,
	dateEntered TEXT NOT NULL,
	uploaded    INTEGER NOT NULL DEFAULT 0,
	uploadedAt  TEXT
);

CREATE TABLE IF NOT EXISTS VA_Blobs (
	id          TEXT PRIMARY KEY,
	blob        BLOB NOT NULL,
	dateEntered TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS EventLog (
	eventDesc TEXT NOT NULL,
	eventType TEXT NOT NULL,
	eventTime TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_va_storage_uploaded ON VA_Storage(uploaded);
`

func (d *DB) migrate() error {
	_, err := d.db.Exec(schema)
	return eris.Wrap(err, "store: migrate")
}

// Reference data seeded into a freshly created store. The metadata codes
// are a working subset; operators extend Algorithm_Metadata_Options for
// their survey instrument.
var (
	seedMetadataCodes = []string{
		"InterVA4|4.04|InterVA|4|2012 WHO Verbal Autopsy Form|v1_4_1",
		"InterVA5|5|InterVA|5|2016 WHO Verbal Autopsy Form v1_4_1|v1_4_1",
		"InSilicoVA|1.1.4|InterVA|5|2016 WHO Verbal Autopsy Form v1_4_1|v1_4_1",
		"InSilicoVA|1.1.4|Custom|1|2016 WHO Verbal Autopsy Form v1_4_1|v1_4_1",
		"SmartVA|2.0.0|PHMRCShort|1|PHMRCShort|v1_4_1",
	}

	seedCountries = [][2]string{
		{"Unknown", "Unknown"},
		{"Angola", "AGO"}, {"Bangladesh", "BGD"}, {"Benin", "BEN"},
		{"Cambodia", "KHM"}, {"China", "CHN"}, {"Ethiopia", "ETH"},
		{"Ghana", "GHA"}, {"India", "IND"}, {"Kenya", "KEN"},
		{"Malawi", "MWI"}, {"Mozambique", "MOZ"}, {"Nepal", "NPL"},
		{"Nigeria", "NGA"}, {"Pakistan", "PAK"}, {"Philippines", "PHL"},
		{"Rwanda", "RWA"}, {"Sierra Leone", "SLE"}, {"Tanzania", "TZA"},
		{"Uganda", "UGA"}, {"Zambia", "ZMB"},
	}

	seedCODCodes = []struct{ name, code, source string }{
		{"Sepsis (non-obstetric)", "K9B7IAy5v5L", "WHO"},
		{"Acute resp infect incl pneumonia", "cOFF0hfpjQi", "WHO"},
		{"HIV/AIDS related death", "gDTIRvSHyoM", "WHO"},
		{"Diarrhoeal diseases", "xDMX6CJQYYi", "WHO"},
		{"Malaria", "aaVZzdmJ09P", "WHO"},
		{"Road traffic accident", "xTXeXvLo7so", "WHO"},
		{"Pneumonia", "hVCh39tzezY", "Tariff"},
		{"AIDS", "KsGOAFOzziM", "Tariff"},
		{"Diarrhea/Dysentery", "V2ZnRQMEyiy", "Tariff"},
		{"Malaria", "cy6Ng9sEU1T", "Tariff"},
		{"Road Traffic", "Td0cNTSDqFv", "Tariff"},
	}
)

// seed writes the reference tables and one default configuration row per
// domain. Defaults are valid so a freshly initialized store passes every
// loader; operators overwrite credentials via `vapipe config set`.
func (d *DB) seed(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: seed begin")
	}
	defer tx.Rollback()

	for _, code := range seedMetadataCodes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO Algorithm_Metadata_Options (code) VALUES (?)`, code); err != nil {
			return eris.Wrap(err, "store: seed metadata codes")
		}
	}
	for _, c := range seedCountries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO SmartVA_Country (name, abbrev) VALUES (?, ?)`, c[0], c[1]); err != nil {
			return eris.Wrap(err, "store: seed countries")
		}
	}
	for _, c := range seedCODCodes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO COD_Codes_DHIS (codName, codCode, codSource) VALUES (?, ?, ?)`, c.name, c.code, c.source); err != nil {
			return eris.Wrap(err, "store: seed cod codes")
		}
	}

	odkPassword, err := d.seal([]byte("odk-password"))
	if err != nil {
		return err
	}
	dhisPassword, err := d.seal([]byte("dhis-password"))
	if err != nil {
		return err
	}

	lastRun := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC).Format(model.TimestampLayout)
	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO Pipeline_Conf (algorithmMetadataCode, codSource, algorithm, workingDirectory) VALUES (?, ?, ?, ?)`,
			[]any{seedMetadataCodes[1], "WHO", "InterVA5", "."}},
		{`INSERT INTO ODK_Conf (odkID, odkURL, odkUser, odkPassword, odkFormID, odkLastRun, odkLastRunResult, odkUseCentral, odkProjectNumber)
		  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			[]any{nil, "https://odk.example.org", "odk-user", odkPassword, "va_who_v1_4_1", lastRun, "success", "True", "1"}},
		{`INSERT INTO InterVA_Conf (version, HIV, Malaria) VALUES ('5', 'v', 'v')`, nil},
		{`INSERT INTO Advanced_InterVA_Conf (directory, filename, output, append, groupcode, replicate, replicate_bug1, replicate_bug2, write)
		  VALUES ('usePipelineVar', 'VA_result', 'extended', 'FALSE', 'FALSE', 'FALSE', 'FALSE', 'FALSE', 'TRUE')`, nil},
		{`INSERT INTO InSilicoVA_Conf (data_type, Nsim) VALUES ('WHO2016', '4000')`, nil},
		{`INSERT INTO Advanced_InSilicoVA_Conf (isNumeric, updateCondProb, keepProbbase_level, CondProb, CondProbNum,
		  datacheck, datacheck_missing, warning_write, directory, external_sep, thin, burnin, auto_length, conv_csmf,
		  jump_scale, levels_prior, levels_strength, trunc_min, trunc_max, subpop, java_option, seed, phy_code, phy_cat,
		  phy_unknown, phy_external, phy_debias, exclude_impossible_cause, no_is_missing, indiv_CI, groupcode)
		  VALUES ('FALSE', 'TRUE', 'TRUE', 'NULL', 'NULL', 'TRUE', 'TRUE', 'FALSE', 'usePipelineVar', 'TRUE', '10',
		  '4000', 'TRUE', '0.02', '0.1', 'NULL', '1', '0.0001', '0.9999', 'NULL', '-Xmx1g', '1', 'NULL', 'NULL',
		  'NULL', 'NULL', 'NULL', 'subset', 'FALSE', 'NULL', 'FALSE')`, nil},
		{`INSERT INTO SmartVA_Conf (country, hiv, malaria, hce, freetext, figures, language)
		  VALUES ('Unknown', 'False', 'False', 'False', 'False', 'False', 'english')`, nil},
		{`INSERT INTO DHIS_Conf (dhisURL, dhisUser, dhisPassword, dhisOrgUnit) VALUES (?, ?, ?, ?)`,
			[]any{"https://dhis.example.org", "dhis-user", dhisPassword, "SCVeBskgiK6"}},
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.sql, s.args...); err != nil {
			return eris.Wrap(err, "store: seed configuration")
		}
	}

	return eris.Wrap(tx.Commit(), "store: seed commit")
}
