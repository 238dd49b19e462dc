package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS mcp_stocks (
	symbol TEXT PRIMARY KEY, market TEXT NOT NULL, country TEXT NOT NULL, currency TEXT NOT NULL,
	sector TEXT NOT NULL DEFAULT '', active INTEGER NOT NULL DEFAULT 1, indexes TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL, updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS mcp_price_cache (
	symbol TEXT NOT NULL, date TEXT NOT NULL, open REAL NOT NULL, high REAL NOT NULL, low REAL NOT NULL,
	close REAL NOT NULL, volume INTEGER NOT NULL, created_at TIMESTAMP NOT NULL, updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (symbol, date)
);
CREATE TABLE IF NOT EXISTS mcp_exchange_rates (
	from_currency TEXT NOT NULL, to_currency TEXT NOT NULL, date TEXT NOT NULL, rate REAL NOT NULL,
	source_tag TEXT NOT NULL, created_at TIMESTAMP NOT NULL, updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (from_currency, to_currency, date)
);
CREATE TABLE IF NOT EXISTS mcp_transcripts (
	id INTEGER PRIMARY KEY AUTOINCREMENT, ticker TEXT NOT NULL, quarter TEXT NOT NULL, fy INTEGER NOT NULL,
	text TEXT NOT NULL, source_tag TEXT NOT NULL, fetched_at TIMESTAMP NOT NULL, word_count INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL, updated_at TIMESTAMP NOT NULL,
	UNIQUE (ticker, quarter, fy)
);
CREATE TABLE IF NOT EXISTS mcp_transcript_derivatives (
	id INTEGER PRIMARY KEY AUTOINCREMENT, transcript_id INTEGER NOT NULL REFERENCES mcp_transcripts(id),
	kind TEXT NOT NULL, payload TEXT NOT NULL, model_tag TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL, updated_at TIMESTAMP NOT NULL,
	UNIQUE (transcript_id, kind)
);
CREATE TABLE IF NOT EXISTS mcp_ir_mappings (
	ticker TEXT PRIMARY KEY, company_name TEXT NOT NULL, ir_base_url TEXT NOT NULL,
	concall_url_pattern TEXT NOT NULL DEFAULT '', concall_section_xpath TEXT NOT NULL DEFAULT '',
	concall_section_css TEXT NOT NULL DEFAULT '', market TEXT NOT NULL, country TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1, verification_status TEXT NOT NULL DEFAULT 'unverified',
	notes TEXT NOT NULL DEFAULT '', created_at TIMESTAMP NOT NULL, updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS mcp_maverick_screening (
	id INTEGER PRIMARY KEY AUTOINCREMENT, strategy TEXT NOT NULL, as_of_date TEXT NOT NULL, rank INTEGER NOT NULL,
	symbol TEXT NOT NULL, payload TEXT NOT NULL, created_at TIMESTAMP NOT NULL, updated_at TIMESTAMP NOT NULL,
	UNIQUE (strategy, as_of_date, symbol)
);
`

// sqliteGateway is the embedded fallback Gateway used when DATABASE_URL
// is unset (spec §6: "if omitted, use embedded file store"). It is
// schema-equivalent to pgGateway but hand-creates its tables directly
// rather than going through golang-migrate: an embedded single-file store
// has no multi-instance migration race to coordinate, so the extra
// machinery buys nothing here.
type sqliteGateway struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a SQLite file at path, or an
// in-memory database when path is ":memory:".
func OpenSQLite(path string) (Gateway, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(errs.Fatal, "sqlite", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; avoid SQLITE_BUSY churn
	return &sqliteGateway{db: db}, nil
}

// sqliteSchemaVersion is recorded in the file's PRAGMA user_version; a
// higher stored value was written by a newer build and is fatal.
const sqliteSchemaVersion = 1

func (g *sqliteGateway) Migrate(ctx context.Context) error {
	var version int
	if err := g.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version > sqliteSchemaVersion {
		return errs.Newf(errs.Fatal, "sqlite schema version %d is newer than this build's %d", version, sqliteSchemaVersion)
	}
	if _, err := g.db.ExecContext(ctx, sqliteSchema); err != nil {
		return err
	}
	_, err := g.db.ExecContext(ctx, "PRAGMA user_version = 1")
	return err
}

func (g *sqliteGateway) Close() { g.db.Close() }

func (g *sqliteGateway) Stocks() StockRepository             { return sqliteStocks{db: g.db} }
func (g *sqliteGateway) PriceBars() PriceBarRepository       { return sqlitePriceBars{db: g.db} }
func (g *sqliteGateway) Transcripts() TranscriptRepository   { return sqliteTranscripts{db: g.db} }
func (g *sqliteGateway) TranscriptDerivatives() TranscriptDerivativeRepository {
	return sqliteTranscriptDerivatives{db: g.db}
}
func (g *sqliteGateway) IRMappings() IRMappingRepository       { return sqliteIRMappings{db: g.db} }
func (g *sqliteGateway) ExchangeRates() ExchangeRateRepository { return sqliteExchangeRates{db: g.db} }
func (g *sqliteGateway) Screenings() ScreeningRepository       { return sqliteScreenings{db: g.db} }

const sqliteTimeLayout = "2006-01-02 15:04:05.999999999Z07:00"

func fmtTime(t time.Time) string { return t.UTC().Format(sqliteTimeLayout) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(sqliteTimeLayout, s)
	return t
}

// --- Stocks ---

type sqliteStocks struct{ db *sql.DB }

func (r sqliteStocks) GetBySymbol(ctx context.Context, symbol string) (Stock, error) {
	row := r.db.QueryRowContext(ctx, `SELECT symbol, market, country, currency, sector, active, indexes, created_at, updated_at
		FROM mcp_stocks WHERE symbol = ?`, symbol)
	var s Stock
	var active int
	var indexesRaw, createdAt, updatedAt string
	if err := row.Scan(&s.Symbol, &s.Market, &s.Country, &s.Currency, &s.Sector, &active, &indexesRaw, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Stock{}, ErrNotFound
		}
		return Stock{}, err
	}
	s.Active = active != 0
	s.CreatedAt, s.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	_ = json.Unmarshal([]byte(indexesRaw), &s.Indexes)
	return s, nil
}

func (r sqliteStocks) Upsert(ctx context.Context, s Stock) error {
	indexesRaw, _ := json.Marshal(s.Indexes)
	now := fmtTime(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mcp_stocks (symbol, market, country, currency, sector, active, indexes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT (symbol) DO UPDATE SET
			market=excluded.market, country=excluded.country, currency=excluded.currency, sector=excluded.sector,
			active=excluded.active, indexes=excluded.indexes, updated_at=excluded.updated_at
	`, s.Symbol, s.Market, s.Country, s.Currency, s.Sector, boolToInt(s.Active), string(indexesRaw), now, now)
	return err
}

func (r sqliteStocks) BulkUpsert(ctx context.Context, rows []Stock) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, s := range rows {
		if err := sqliteUpsertStock(ctx, tx, s); err != nil {
			return &BulkWriteError{FirstFailing: i, Count: len(rows), Cause: err}
		}
	}
	return tx.Commit()
}

func sqliteUpsertStock(ctx context.Context, tx *sql.Tx, s Stock) error {
	indexesRaw, _ := json.Marshal(s.Indexes)
	now := fmtTime(time.Now())
	_, err := tx.ExecContext(ctx, `
		INSERT INTO mcp_stocks (symbol, market, country, currency, sector, active, indexes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT (symbol) DO UPDATE SET
			market=excluded.market, country=excluded.country, currency=excluded.currency, sector=excluded.sector,
			active=excluded.active, indexes=excluded.indexes, updated_at=excluded.updated_at
	`, s.Symbol, s.Market, s.Country, s.Currency, s.Sector, boolToInt(s.Active), string(indexesRaw), now, now)
	return err
}

func (r sqliteStocks) QueryBy(ctx context.Context, p StockPredicate) ([]Stock, error) {
	q := `SELECT symbol, market, country, currency, sector, active, indexes, created_at, updated_at FROM mcp_stocks WHERE 1=1`
	var args []any
	if p.Market != nil {
		q += " AND market = ?"
		args = append(args, *p.Market)
	}
	if p.Active != nil {
		q += " AND active = ?"
		args = append(args, boolToInt(*p.Active))
	}
	q += " ORDER BY symbol ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stock
	for rows.Next() {
		var s Stock
		var active int
		var indexesRaw, createdAt, updatedAt string
		if err := rows.Scan(&s.Symbol, &s.Market, &s.Country, &s.Currency, &s.Sector, &active, &indexesRaw, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		s.Active = active != 0
		s.CreatedAt, s.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
		_ = json.Unmarshal([]byte(indexesRaw), &s.Indexes)
		out = append(out, s)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- PriceBars ---

type sqlitePriceBars struct{ db *sql.DB }

func (r sqlitePriceBars) GetBySymbolDate(ctx context.Context, symbol string, date string) (PriceBar, error) {
	row := r.db.QueryRowContext(ctx, `SELECT symbol, date, open, high, low, close, volume, created_at, updated_at
		FROM mcp_price_cache WHERE symbol = ? AND date = ?`, symbol, date)
	var b PriceBar
	var d, createdAt, updatedAt string
	if err := row.Scan(&b.Symbol, &d, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PriceBar{}, ErrNotFound
		}
		return PriceBar{}, err
	}
	b.Date, _ = time.Parse("2006-01-02", d)
	b.CreatedAt, b.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	return b, nil
}

func (r sqlitePriceBars) Upsert(ctx context.Context, b PriceBar) error {
	now := fmtTime(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mcp_price_cache (symbol, date, open, high, low, close, volume, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low, close=excluded.close,
			volume=excluded.volume, updated_at=excluded.updated_at
	`, b.Symbol, b.Date.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.Volume, now, now)
	return err
}

func (r sqlitePriceBars) BulkUpsert(ctx context.Context, rows []PriceBar) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := fmtTime(time.Now())
	for i, b := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mcp_price_cache (symbol, date, open, high, low, close, volume, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?)
			ON CONFLICT (symbol, date) DO UPDATE SET
				open=excluded.open, high=excluded.high, low=excluded.low, close=excluded.close,
				volume=excluded.volume, updated_at=excluded.updated_at
		`, b.Symbol, b.Date.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.Volume, now, now); err != nil {
			return &BulkWriteError{FirstFailing: i, Count: len(rows), Cause: err}
		}
	}
	return tx.Commit()
}

func (r sqlitePriceBars) QueryBy(ctx context.Context, p PriceBarPredicate) ([]PriceBar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume, created_at, updated_at
		FROM mcp_price_cache WHERE symbol = ? AND date BETWEEN ? AND ?
		ORDER BY symbol ASC, date DESC
	`, p.Symbol, p.From.Format("2006-01-02"), p.To.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceBar
	for rows.Next() {
		var b PriceBar
		var d, createdAt, updatedAt string
		if err := rows.Scan(&b.Symbol, &d, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		b.Date, _ = time.Parse("2006-01-02", d)
		b.CreatedAt, b.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- Transcripts ---

type sqliteTranscripts struct{ db *sql.DB }

func (r sqliteTranscripts) GetByIdentity(ctx context.Context, id TranscriptIdentity) (Transcript, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, ticker, quarter, fy, text, source_tag, fetched_at, word_count, created_at, updated_at
		FROM mcp_transcripts WHERE ticker = ? AND quarter = ? AND fy = ?
	`, id.Symbol, id.Quarter, id.FiscalYear)
	var t Transcript
	var fetchedAt, createdAt, updatedAt string
	if err := row.Scan(&t.ID, &t.Symbol, &t.Quarter, &t.FiscalYear, &t.Text, &t.SourceTag, &fetchedAt, &t.WordCount, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Transcript{}, ErrNotFound
		}
		return Transcript{}, err
	}
	t.FetchedAt = parseTime(fetchedAt)
	t.CreatedAt, t.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	return t, nil
}

func (r sqliteTranscripts) Upsert(ctx context.Context, t Transcript, force bool) error {
	now := fmtTime(time.Now())
	conflictClause := "DO NOTHING"
	if force {
		conflictClause = `DO UPDATE SET text=excluded.text, source_tag=excluded.source_tag,
			fetched_at=excluded.fetched_at, word_count=excluded.word_count, updated_at=excluded.updated_at`
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mcp_transcripts (ticker, quarter, fy, text, source_tag, fetched_at, word_count, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT (ticker, quarter, fy) `+conflictClause,
		t.Symbol, t.Quarter, t.FiscalYear, t.Text, t.SourceTag, fmtTime(t.FetchedAt), t.WordCount, now, now)
	return err
}

func (r sqliteTranscripts) BulkUpsert(ctx context.Context, rows []Transcript, force bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	conflictClause := "DO NOTHING"
	if force {
		conflictClause = `DO UPDATE SET text=excluded.text, source_tag=excluded.source_tag,
			fetched_at=excluded.fetched_at, word_count=excluded.word_count, updated_at=excluded.updated_at`
	}
	now := fmtTime(time.Now())
	for i, t := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mcp_transcripts (ticker, quarter, fy, text, source_tag, fetched_at, word_count, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?)
			ON CONFLICT (ticker, quarter, fy) `+conflictClause,
			t.Symbol, t.Quarter, t.FiscalYear, t.Text, t.SourceTag, fmtTime(t.FetchedAt), t.WordCount, now, now); err != nil {
			return &BulkWriteError{FirstFailing: i, Count: len(rows), Cause: err}
		}
	}
	return tx.Commit()
}

// --- TranscriptDerivatives ---

type sqliteTranscriptDerivatives struct{ db *sql.DB }

func (r sqliteTranscriptDerivatives) GetByTranscriptAndKind(ctx context.Context, transcriptID int64, kind DerivativeKind) (TranscriptDerivative, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, transcript_id, kind, payload, model_tag, created_at, updated_at
		FROM mcp_transcript_derivatives WHERE transcript_id = ? AND kind = ?
	`, transcriptID, string(kind))
	var d TranscriptDerivative
	var kindRaw, payloadRaw, createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.TranscriptID, &kindRaw, &payloadRaw, &d.ModelTag, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TranscriptDerivative{}, ErrNotFound
		}
		return TranscriptDerivative{}, err
	}
	d.Kind = DerivativeKind(kindRaw)
	d.Payload = []byte(payloadRaw)
	d.CreatedAt, d.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	return d, nil
}

func (r sqliteTranscriptDerivatives) Upsert(ctx context.Context, d TranscriptDerivative) error {
	now := fmtTime(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mcp_transcript_derivatives (transcript_id, kind, payload, model_tag, created_at, updated_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT (transcript_id, kind) DO UPDATE SET
			payload=excluded.payload, model_tag=excluded.model_tag, updated_at=excluded.updated_at
	`, d.TranscriptID, string(d.Kind), string(d.Payload), d.ModelTag, now, now)
	return err
}

// --- IRMappings ---

type sqliteIRMappings struct{ db *sql.DB }

func (r sqliteIRMappings) GetByTicker(ctx context.Context, ticker string) (IRMapping, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT ticker, company_name, ir_base_url, concall_url_pattern, concall_section_xpath, concall_section_css,
			market, country, is_active, verification_status, notes, created_at, updated_at
		FROM mcp_ir_mappings WHERE ticker = ?
	`, ticker)
	var m IRMapping
	var active int
	var createdAt, updatedAt string
	if err := row.Scan(&m.Ticker, &m.CompanyName, &m.IRBaseURL, &m.ConcallURLPattern, &m.ConcallSectionXPath, &m.ConcallSectionCSS,
		&m.Market, &m.Country, &active, &m.VerificationStatus, &m.Notes, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return IRMapping{}, ErrNotFound
		}
		return IRMapping{}, err
	}
	m.Active = active != 0
	m.CreatedAt, m.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	return m, nil
}

func (r sqliteIRMappings) Upsert(ctx context.Context, m IRMapping) error {
	now := fmtTime(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mcp_ir_mappings (ticker, company_name, ir_base_url, concall_url_pattern, concall_section_xpath,
			concall_section_css, market, country, is_active, verification_status, notes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (ticker) DO UPDATE SET
			company_name=excluded.company_name, ir_base_url=excluded.ir_base_url,
			concall_url_pattern=excluded.concall_url_pattern, concall_section_xpath=excluded.concall_section_xpath,
			concall_section_css=excluded.concall_section_css, market=excluded.market, country=excluded.country,
			is_active=excluded.is_active, verification_status=excluded.verification_status, notes=excluded.notes,
			updated_at=excluded.updated_at
	`, m.Ticker, m.CompanyName, m.IRBaseURL, m.ConcallURLPattern, m.ConcallSectionXPath, m.ConcallSectionCSS,
		m.Market, m.Country, boolToInt(m.Active), m.VerificationStatus, m.Notes, now, now)
	return err
}

func (r sqliteIRMappings) BulkUpsert(ctx context.Context, rows []IRMapping) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := fmtTime(time.Now())
	for i, m := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mcp_ir_mappings (ticker, company_name, ir_base_url, concall_url_pattern, concall_section_xpath,
				concall_section_css, market, country, is_active, verification_status, notes, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT (ticker) DO UPDATE SET
				company_name=excluded.company_name, ir_base_url=excluded.ir_base_url,
				concall_url_pattern=excluded.concall_url_pattern, concall_section_xpath=excluded.concall_section_xpath,
				concall_section_css=excluded.concall_section_css, market=excluded.market, country=excluded.country,
				is_active=excluded.is_active, verification_status=excluded.verification_status, notes=excluded.notes,
				updated_at=excluded.updated_at
		`, m.Ticker, m.CompanyName, m.IRBaseURL, m.ConcallURLPattern, m.ConcallSectionXPath, m.ConcallSectionCSS,
			m.Market, m.Country, boolToInt(m.Active), m.VerificationStatus, m.Notes, now, now); err != nil {
			return &BulkWriteError{FirstFailing: i, Count: len(rows), Cause: err}
		}
	}
	return tx.Commit()
}

func (r sqliteIRMappings) QueryBy(ctx context.Context, activeOnly bool) ([]IRMapping, error) {
	q := `SELECT ticker, company_name, ir_base_url, concall_url_pattern, concall_section_xpath, concall_section_css,
		market, country, is_active, verification_status, notes, created_at, updated_at FROM mcp_ir_mappings`
	if activeOnly {
		q += " WHERE is_active = 1"
	}
	q += " ORDER BY ticker ASC"

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IRMapping
	for rows.Next() {
		var m IRMapping
		var active int
		var createdAt, updatedAt string
		if err := rows.Scan(&m.Ticker, &m.CompanyName, &m.IRBaseURL, &m.ConcallURLPattern, &m.ConcallSectionXPath, &m.ConcallSectionCSS,
			&m.Market, &m.Country, &active, &m.VerificationStatus, &m.Notes, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		m.Active = active != 0
		m.CreatedAt, m.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- ExchangeRates ---

type sqliteExchangeRates struct{ db *sql.DB }

func (r sqliteExchangeRates) GetByKey(ctx context.Context, from, to string, date string) (ExchangeRate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT from_currency, to_currency, date, rate, source_tag, created_at, updated_at
		FROM mcp_exchange_rates WHERE from_currency = ? AND to_currency = ? AND date = ?
	`, from, to, date)
	var e ExchangeRate
	var d, createdAt, updatedAt string
	if err := row.Scan(&e.From, &e.To, &d, &e.Rate, &e.SourceTag, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ExchangeRate{}, ErrNotFound
		}
		return ExchangeRate{}, err
	}
	e.Date, _ = time.Parse("2006-01-02", d)
	e.CreatedAt, e.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	return e, nil
}

func (r sqliteExchangeRates) Upsert(ctx context.Context, e ExchangeRate) error {
	now := fmtTime(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mcp_exchange_rates (from_currency, to_currency, date, rate, source_tag, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT (from_currency, to_currency, date) DO UPDATE SET
			rate=excluded.rate, source_tag=excluded.source_tag, updated_at=excluded.updated_at
	`, e.From, e.To, e.Date.Format("2006-01-02"), e.Rate, e.SourceTag, now, now)
	return err
}

func (r sqliteExchangeRates) QueryBy(ctx context.Context, p ExchangeRatePredicate) ([]ExchangeRate, error) {
	q := `SELECT from_currency, to_currency, date, rate, source_tag, created_at, updated_at
		FROM mcp_exchange_rates WHERE from_currency = ? AND to_currency = ?`
	args := []any{p.From, p.To}
	if p.Date != nil {
		q += " AND date = ?"
		args = append(args, p.Date.Format("2006-01-02"))
	}
	q += " ORDER BY date DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExchangeRate
	for rows.Next() {
		var e ExchangeRate
		var d, createdAt, updatedAt string
		if err := rows.Scan(&e.From, &e.To, &d, &e.Rate, &e.SourceTag, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.Date, _ = time.Parse("2006-01-02", d)
		e.CreatedAt, e.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Screenings ---

type sqliteScreenings struct{ db *sql.DB }

func (r sqliteScreenings) BulkUpsert(ctx context.Context, rows []ScreeningSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := fmtTime(time.Now())
	for i, s := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mcp_maverick_screening (strategy, as_of_date, rank, symbol, payload, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?)
			ON CONFLICT (strategy, as_of_date, symbol) DO UPDATE SET
				rank=excluded.rank, payload=excluded.payload, updated_at=excluded.updated_at
		`, s.Strategy, s.AsOfDate.Format("2006-01-02"), s.Rank, s.Symbol, string(s.Payload), now, now); err != nil {
			return &BulkWriteError{FirstFailing: i, Count: len(rows), Cause: err}
		}
	}
	return tx.Commit()
}

func (r sqliteScreenings) QueryBy(ctx context.Context, p ScreeningPredicate) ([]ScreeningSnapshot, error) {
	q := `SELECT id, strategy, as_of_date, rank, symbol, payload, created_at, updated_at
		FROM mcp_maverick_screening WHERE strategy = ?`
	args := []any{p.Strategy}
	if p.AsOfDate != nil {
		q += " AND as_of_date = ?"
		args = append(args, p.AsOfDate.Format("2006-01-02"))
	} else {
		q += ` AND as_of_date = (SELECT MAX(as_of_date) FROM mcp_maverick_screening WHERE strategy = ?)`
		args = append(args, p.Strategy)
	}
	q += " ORDER BY symbol ASC, rank ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScreeningSnapshot
	for rows.Next() {
		var s ScreeningSnapshot
		var asOf, payloadRaw, createdAt, updatedAt string
		if err := rows.Scan(&s.ID, &s.Strategy, &asOf, &s.Rank, &s.Symbol, &payloadRaw, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		s.AsOfDate, _ = time.Parse("2006-01-02", asOf)
		s.Payload = []byte(payloadRaw)
		s.CreatedAt, s.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}
