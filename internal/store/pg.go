package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

// pgGateway is the Postgres-backed Gateway, grounded on
// other_examples/brandon-relentnet-myscrollr's App{db *pgxpool.Pool}
// pattern: a pool owned by the gateway, never leaked to callers (spec
// §5 "No connection leaves C3").
type pgGateway struct {
	pool *pgxpool.Pool
	dsn  string
}

// OpenPostgres builds a pool-backed Gateway. A zero poolSize falls back
// to 20 and a zero recycle to 3600s; overflow is added to poolSize as
// given (MaxConns = poolSize + overflow).
func OpenPostgres(ctx context.Context, dsn string, poolSize, overflow int32, recycle time.Duration) (Gateway, error) {
	pgCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errs.Wrap(errs.Fatal, "postgres", err)
	}
	if poolSize <= 0 {
		poolSize = 20
	}
	pgCfg.MaxConns = poolSize + overflow
	if recycle <= 0 {
		recycle = 3600 * time.Second
	}
	pgCfg.MaxConnLifetime = recycle

	pool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		return nil, errs.Wrap(errs.Fatal, "postgres", err)
	}
	return &pgGateway{pool: pool, dsn: dsn}, nil
}

func (g *pgGateway) Migrate(ctx context.Context) error {
	return runPostgresMigrations(g.dsn)
}

func (g *pgGateway) Close() { g.pool.Close() }

func (g *pgGateway) Stocks() StockRepository             { return pgStocks{pool: g.pool} }
func (g *pgGateway) PriceBars() PriceBarRepository        { return pgPriceBars{pool: g.pool} }
func (g *pgGateway) Transcripts() TranscriptRepository    { return pgTranscripts{pool: g.pool} }
func (g *pgGateway) TranscriptDerivatives() TranscriptDerivativeRepository {
	return pgTranscriptDerivatives{pool: g.pool}
}
func (g *pgGateway) IRMappings() IRMappingRepository      { return pgIRMappings{pool: g.pool} }
func (g *pgGateway) ExchangeRates() ExchangeRateRepository { return pgExchangeRates{pool: g.pool} }
func (g *pgGateway) Screenings() ScreeningRepository      { return pgScreenings{pool: g.pool} }

// --- Stocks ---

type pgStocks struct{ pool *pgxpool.Pool }

func (r pgStocks) GetBySymbol(ctx context.Context, symbol string) (Stock, error) {
	row := r.pool.QueryRow(ctx, `SELECT symbol, market, country, currency, sector, active, indexes, created_at, updated_at
		FROM mcp_stocks WHERE symbol = $1`, symbol)
	var s Stock
	var indexesRaw []byte
	if err := row.Scan(&s.Symbol, &s.Market, &s.Country, &s.Currency, &s.Sector, &s.Active, &indexesRaw, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stock{}, ErrNotFound
		}
		return Stock{}, err
	}
	_ = json.Unmarshal(indexesRaw, &s.Indexes)
	return s, nil
}

func (r pgStocks) Upsert(ctx context.Context, s Stock) error {
	indexesRaw, _ := json.Marshal(s.Indexes)
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mcp_stocks (symbol, market, country, currency, sector, active, indexes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
		ON CONFLICT (symbol) DO UPDATE SET
			market=EXCLUDED.market, country=EXCLUDED.country, currency=EXCLUDED.currency,
			sector=EXCLUDED.sector, active=EXCLUDED.active, indexes=EXCLUDED.indexes, updated_at=EXCLUDED.updated_at
	`, s.Symbol, s.Market, s.Country, s.Currency, s.Sector, s.Active, indexesRaw, now)
	return err
}

func (r pgStocks) BulkUpsert(ctx context.Context, rows []Stock) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, s := range rows {
		indexesRaw, _ := json.Marshal(s.Indexes)
		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `
			INSERT INTO mcp_stocks (symbol, market, country, currency, sector, active, indexes, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
			ON CONFLICT (symbol) DO UPDATE SET
				market=EXCLUDED.market, country=EXCLUDED.country, currency=EXCLUDED.currency,
				sector=EXCLUDED.sector, active=EXCLUDED.active, indexes=EXCLUDED.indexes, updated_at=EXCLUDED.updated_at
		`, s.Symbol, s.Market, s.Country, s.Currency, s.Sector, s.Active, indexesRaw, now); err != nil {
			return &BulkWriteError{FirstFailing: i, Count: len(rows), Cause: err}
		}
	}
	return tx.Commit(ctx)
}

func (r pgStocks) QueryBy(ctx context.Context, p StockPredicate) ([]Stock, error) {
	q := `SELECT symbol, market, country, currency, sector, active, indexes, created_at, updated_at FROM mcp_stocks WHERE TRUE`
	var args []any
	if p.Market != nil {
		args = append(args, *p.Market)
		q += " AND market = $" + strconv.Itoa(len(args))
	}
	if p.Active != nil {
		args = append(args, *p.Active)
		q += " AND active = $" + strconv.Itoa(len(args))
	}
	q += " ORDER BY symbol ASC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stock
	for rows.Next() {
		var s Stock
		var indexesRaw []byte
		if err := rows.Scan(&s.Symbol, &s.Market, &s.Country, &s.Currency, &s.Sector, &s.Active, &indexesRaw, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(indexesRaw, &s.Indexes)
		out = append(out, s)
	}
	return out, rows.Err()
}

// --- PriceBars ---

type pgPriceBars struct{ pool *pgxpool.Pool }

func (r pgPriceBars) GetBySymbolDate(ctx context.Context, symbol string, date string) (PriceBar, error) {
	row := r.pool.QueryRow(ctx, `SELECT symbol, date, open, high, low, close, volume, created_at, updated_at
		FROM mcp_price_cache WHERE symbol = $1 AND date = $2`, symbol, date)
	var b PriceBar
	if err := row.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PriceBar{}, ErrNotFound
		}
		return PriceBar{}, err
	}
	return b, nil
}

func (r pgPriceBars) Upsert(ctx context.Context, b PriceBar) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mcp_price_cache (symbol, date, open, high, low, close, volume, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open=EXCLUDED.open, high=EXCLUDED.high, low=EXCLUDED.low, close=EXCLUDED.close,
			volume=EXCLUDED.volume, updated_at=EXCLUDED.updated_at
	`, b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, now)
	return err
}

func (r pgPriceBars) BulkUpsert(ctx context.Context, rows []PriceBar) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for i, b := range rows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO mcp_price_cache (symbol, date, open, high, low, close, volume, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
			ON CONFLICT (symbol, date) DO UPDATE SET
				open=EXCLUDED.open, high=EXCLUDED.high, low=EXCLUDED.low, close=EXCLUDED.close,
				volume=EXCLUDED.volume, updated_at=EXCLUDED.updated_at
		`, b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, now); err != nil {
			return &BulkWriteError{FirstFailing: i, Count: len(rows), Cause: err}
		}
	}
	return tx.Commit(ctx)
}

func (r pgPriceBars) QueryBy(ctx context.Context, p PriceBarPredicate) ([]PriceBar, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT symbol, date, open, high, low, close, volume, created_at, updated_at
		FROM mcp_price_cache WHERE symbol = $1 AND date BETWEEN $2 AND $3
		ORDER BY symbol ASC, date DESC
	`, p.Symbol, p.From, p.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceBar
	for rows.Next() {
		var b PriceBar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- Transcripts ---

type pgTranscripts struct{ pool *pgxpool.Pool }

func (r pgTranscripts) GetByIdentity(ctx context.Context, id TranscriptIdentity) (Transcript, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, ticker, quarter, fy, text, source_tag, fetched_at, word_count, created_at, updated_at
		FROM mcp_transcripts WHERE ticker = $1 AND quarter = $2 AND fy = $3
	`, id.Symbol, id.Quarter, id.FiscalYear)
	var t Transcript
	if err := row.Scan(&t.ID, &t.Symbol, &t.Quarter, &t.FiscalYear, &t.Text, &t.SourceTag, &t.FetchedAt, &t.WordCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transcript{}, ErrNotFound
		}
		return Transcript{}, err
	}
	return t, nil
}

// Upsert implements the immutability contract: without force, an
// existing row is left untouched and no error is raised (the caller
// already has the authoritative row via GetByIdentity).
func (r pgTranscripts) Upsert(ctx context.Context, t Transcript, force bool) error {
	now := time.Now().UTC()
	if force {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO mcp_transcripts (ticker, quarter, fy, text, source_tag, fetched_at, word_count, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
			ON CONFLICT (ticker, quarter, fy) DO UPDATE SET
				text=EXCLUDED.text, source_tag=EXCLUDED.source_tag, fetched_at=EXCLUDED.fetched_at,
				word_count=EXCLUDED.word_count, updated_at=EXCLUDED.updated_at
		`, t.Symbol, t.Quarter, t.FiscalYear, t.Text, t.SourceTag, t.FetchedAt, t.WordCount, now)
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mcp_transcripts (ticker, quarter, fy, text, source_tag, fetched_at, word_count, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
		ON CONFLICT (ticker, quarter, fy) DO NOTHING
	`, t.Symbol, t.Quarter, t.FiscalYear, t.Text, t.SourceTag, t.FetchedAt, t.WordCount, now)
	return err
}

func (r pgTranscripts) BulkUpsert(ctx context.Context, rows []Transcript, force bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for i, t := range rows {
		var execErr error
		if force {
			_, execErr = tx.Exec(ctx, `
				INSERT INTO mcp_transcripts (ticker, quarter, fy, text, source_tag, fetched_at, word_count, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
				ON CONFLICT (ticker, quarter, fy) DO UPDATE SET
					text=EXCLUDED.text, source_tag=EXCLUDED.source_tag, fetched_at=EXCLUDED.fetched_at,
					word_count=EXCLUDED.word_count, updated_at=EXCLUDED.updated_at
			`, t.Symbol, t.Quarter, t.FiscalYear, t.Text, t.SourceTag, t.FetchedAt, t.WordCount, now)
		} else {
			_, execErr = tx.Exec(ctx, `
				INSERT INTO mcp_transcripts (ticker, quarter, fy, text, source_tag, fetched_at, word_count, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
				ON CONFLICT (ticker, quarter, fy) DO NOTHING
			`, t.Symbol, t.Quarter, t.FiscalYear, t.Text, t.SourceTag, t.FetchedAt, t.WordCount, now)
		}
		if execErr != nil {
			return &BulkWriteError{FirstFailing: i, Count: len(rows), Cause: execErr}
		}
	}
	return tx.Commit(ctx)
}

// --- TranscriptDerivatives ---

type pgTranscriptDerivatives struct{ pool *pgxpool.Pool }

func (r pgTranscriptDerivatives) GetByTranscriptAndKind(ctx context.Context, transcriptID int64, kind DerivativeKind) (TranscriptDerivative, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, transcript_id, kind, payload, model_tag, created_at, updated_at
		FROM mcp_transcript_derivatives WHERE transcript_id = $1 AND kind = $2
	`, transcriptID, string(kind))
	var d TranscriptDerivative
	var kindRaw string
	var payloadRaw string
	if err := row.Scan(&d.ID, &d.TranscriptID, &kindRaw, &payloadRaw, &d.ModelTag, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TranscriptDerivative{}, ErrNotFound
		}
		return TranscriptDerivative{}, err
	}
	d.Kind = DerivativeKind(kindRaw)
	d.Payload = []byte(payloadRaw)
	return d, nil
}

func (r pgTranscriptDerivatives) Upsert(ctx context.Context, d TranscriptDerivative) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mcp_transcript_derivatives (transcript_id, kind, payload, model_tag, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$5)
		ON CONFLICT (transcript_id, kind) DO UPDATE SET
			payload=EXCLUDED.payload, model_tag=EXCLUDED.model_tag, updated_at=EXCLUDED.updated_at
	`, d.TranscriptID, string(d.Kind), string(d.Payload), d.ModelTag, now)
	return err
}

// --- IRMappings ---

type pgIRMappings struct{ pool *pgxpool.Pool }

func (r pgIRMappings) GetByTicker(ctx context.Context, ticker string) (IRMapping, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT ticker, company_name, ir_base_url, concall_url_pattern, concall_section_xpath, concall_section_css,
			market, country, is_active, verification_status, notes, created_at, updated_at
		FROM mcp_ir_mappings WHERE ticker = $1
	`, ticker)
	var m IRMapping
	if err := row.Scan(&m.Ticker, &m.CompanyName, &m.IRBaseURL, &m.ConcallURLPattern, &m.ConcallSectionXPath, &m.ConcallSectionCSS,
		&m.Market, &m.Country, &m.Active, &m.VerificationStatus, &m.Notes, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return IRMapping{}, ErrNotFound
		}
		return IRMapping{}, err
	}
	return m, nil
}

func (r pgIRMappings) Upsert(ctx context.Context, m IRMapping) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mcp_ir_mappings (ticker, company_name, ir_base_url, concall_url_pattern, concall_section_xpath,
			concall_section_css, market, country, is_active, verification_status, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
		ON CONFLICT (ticker) DO UPDATE SET
			company_name=EXCLUDED.company_name, ir_base_url=EXCLUDED.ir_base_url,
			concall_url_pattern=EXCLUDED.concall_url_pattern, concall_section_xpath=EXCLUDED.concall_section_xpath,
			concall_section_css=EXCLUDED.concall_section_css, market=EXCLUDED.market, country=EXCLUDED.country,
			is_active=EXCLUDED.is_active, verification_status=EXCLUDED.verification_status, notes=EXCLUDED.notes,
			updated_at=EXCLUDED.updated_at
	`, m.Ticker, m.CompanyName, m.IRBaseURL, m.ConcallURLPattern, m.ConcallSectionXPath, m.ConcallSectionCSS,
		m.Market, m.Country, m.Active, m.VerificationStatus, m.Notes, now)
	return err
}

func (r pgIRMappings) BulkUpsert(ctx context.Context, rows []IRMapping) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for i, m := range rows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO mcp_ir_mappings (ticker, company_name, ir_base_url, concall_url_pattern, concall_section_xpath,
				concall_section_css, market, country, is_active, verification_status, notes, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
			ON CONFLICT (ticker) DO UPDATE SET
				company_name=EXCLUDED.company_name, ir_base_url=EXCLUDED.ir_base_url,
				concall_url_pattern=EXCLUDED.concall_url_pattern, concall_section_xpath=EXCLUDED.concall_section_xpath,
				concall_section_css=EXCLUDED.concall_section_css, market=EXCLUDED.market, country=EXCLUDED.country,
				is_active=EXCLUDED.is_active, verification_status=EXCLUDED.verification_status, notes=EXCLUDED.notes,
				updated_at=EXCLUDED.updated_at
		`, m.Ticker, m.CompanyName, m.IRBaseURL, m.ConcallURLPattern, m.ConcallSectionXPath, m.ConcallSectionCSS,
			m.Market, m.Country, m.Active, m.VerificationStatus, m.Notes, now); err != nil {
			return &BulkWriteError{FirstFailing: i, Count: len(rows), Cause: err}
		}
	}
	return tx.Commit(ctx)
}

func (r pgIRMappings) QueryBy(ctx context.Context, activeOnly bool) ([]IRMapping, error) {
	q := `SELECT ticker, company_name, ir_base_url, concall_url_pattern, concall_section_xpath, concall_section_css,
		market, country, is_active, verification_status, notes, created_at, updated_at FROM mcp_ir_mappings`
	if activeOnly {
		q += " WHERE is_active = TRUE"
	}
	q += " ORDER BY ticker ASC"

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IRMapping
	for rows.Next() {
		var m IRMapping
		if err := rows.Scan(&m.Ticker, &m.CompanyName, &m.IRBaseURL, &m.ConcallURLPattern, &m.ConcallSectionXPath, &m.ConcallSectionCSS,
			&m.Market, &m.Country, &m.Active, &m.VerificationStatus, &m.Notes, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- ExchangeRates ---

type pgExchangeRates struct{ pool *pgxpool.Pool }

func (r pgExchangeRates) GetByKey(ctx context.Context, from, to string, date string) (ExchangeRate, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT from_currency, to_currency, date, rate, source_tag, created_at, updated_at
		FROM mcp_exchange_rates WHERE from_currency = $1 AND to_currency = $2 AND date = $3
	`, from, to, date)
	var e ExchangeRate
	if err := row.Scan(&e.From, &e.To, &e.Date, &e.Rate, &e.SourceTag, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ExchangeRate{}, ErrNotFound
		}
		return ExchangeRate{}, err
	}
	return e, nil
}

func (r pgExchangeRates) Upsert(ctx context.Context, e ExchangeRate) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mcp_exchange_rates (from_currency, to_currency, date, rate, source_tag, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)
		ON CONFLICT (from_currency, to_currency, date) DO UPDATE SET
			rate=EXCLUDED.rate, source_tag=EXCLUDED.source_tag, updated_at=EXCLUDED.updated_at
	`, e.From, e.To, e.Date, e.Rate, e.SourceTag, now)
	return err
}

func (r pgExchangeRates) QueryBy(ctx context.Context, p ExchangeRatePredicate) ([]ExchangeRate, error) {
	q := `SELECT from_currency, to_currency, date, rate, source_tag, created_at, updated_at
		FROM mcp_exchange_rates WHERE from_currency = $1 AND to_currency = $2`
	args := []any{p.From, p.To}
	if p.Date != nil {
		args = append(args, *p.Date)
		q += " AND date = $3"
	}
	q += " ORDER BY date DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExchangeRate
	for rows.Next() {
		var e ExchangeRate
		if err := rows.Scan(&e.From, &e.To, &e.Date, &e.Rate, &e.SourceTag, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Screenings ---

type pgScreenings struct{ pool *pgxpool.Pool }

func (r pgScreenings) BulkUpsert(ctx context.Context, rows []ScreeningSnapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for i, s := range rows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO mcp_maverick_screening (strategy, as_of_date, rank, symbol, payload, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$6)
			ON CONFLICT (strategy, as_of_date, symbol) DO UPDATE SET
				rank=EXCLUDED.rank, payload=EXCLUDED.payload, updated_at=EXCLUDED.updated_at
		`, s.Strategy, s.AsOfDate, s.Rank, s.Symbol, string(s.Payload), now); err != nil {
			return &BulkWriteError{FirstFailing: i, Count: len(rows), Cause: err}
		}
	}
	return tx.Commit(ctx)
}

func (r pgScreenings) QueryBy(ctx context.Context, p ScreeningPredicate) ([]ScreeningSnapshot, error) {
	q := `SELECT id, strategy, as_of_date, rank, symbol, payload, created_at, updated_at
		FROM mcp_maverick_screening WHERE strategy = $1`
	args := []any{p.Strategy}
	if p.AsOfDate != nil {
		args = append(args, *p.AsOfDate)
		q += " AND as_of_date = $2"
	} else {
		q += ` AND as_of_date = (SELECT MAX(as_of_date) FROM mcp_maverick_screening WHERE strategy = $1)`
	}
	q += " ORDER BY symbol ASC, rank ASC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScreeningSnapshot
	for rows.Next() {
		var s ScreeningSnapshot
		var payloadRaw string
		if err := rows.Scan(&s.ID, &s.Strategy, &s.AsOfDate, &s.Rank, &s.Symbol, &payloadRaw, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Payload = []byte(payloadRaw)
		out = append(out, s)
	}
	return out, rows.Err()
}

