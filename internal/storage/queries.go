package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/go-chess-metrics/internal/model"
)

// FileExists returns true if an analysis file with the given hash is already stored.
func (db *DB) FileExists(hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM analysis_files WHERE hash = ?", hash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertFile records an ingested analysis file. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertFile(hash, path string, games, skipped int) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO analysis_files(hash, path, games, skipped, ingested_at)
		VALUES (?, ?, ?, ?, ?)`,
		hash, path, games, skipped, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// InsertGame upserts a game header. Existing per-side rows are kept.
func (db *DB) InsertGame(g model.GameSummary) error {
	_, err := db.conn.Exec(`
		INSERT INTO games(game_key, file_hash, white, black, game_date, result, hash_code,
			book_depth, search_depth, engine, analysed_plies)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_key) DO UPDATE SET
			file_hash = excluded.file_hash,
			white = excluded.white,
			black = excluded.black,
			game_date = excluded.game_date,
			result = excluded.result,
			hash_code = excluded.hash_code,
			book_depth = excluded.book_depth,
			search_depth = excluded.search_depth,
			engine = excluded.engine,
			analysed_plies = excluded.analysed_plies`,
		g.GameKey, g.FileHash, g.White, g.Black, g.Date, g.Result, g.HashCode,
		g.BookDepth, g.SearchDepth, g.Engine, g.AnalysedPlies,
	)
	return err
}

// InsertPlayerGameStats bulk-inserts per-side statistics in a transaction.
func (db *DB) InsertPlayerGameStats(stats []model.StoredPlayerStats) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_game_stats(
			game_key, side, name, is_white, game_date, result, hash_code,
			num_scores, num_moves, score_sum, within_count,
			ae, sd, cv, low_threshold, matched
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		_, err = stmt.Exec(
			s.GameKey, s.Side.String(), s.Name, boolInt(s.IsWhite), s.Date, s.Result, s.HashCode,
			s.NumScores, s.NumMoves, s.ScoreSum, s.WithinCount,
			s.AE, s.SD, s.CV, s.LowThreshold, boolInt(s.Matched),
		)
		if err != nil {
			return fmt.Errorf("insert player_game_stats for %s: %w", s.Name, err)
		}
	}
	return tx.Commit()
}

// InsertMoveScores bulk-inserts resolved moves in a transaction.
func (db *DB) InsertMoveScores(rows []model.MoveScoreRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO move_scores(
			game_key, ply, side, played, best, played_eval, best_eval,
			value, best_is_mate, played_is_mate, score_text
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err = stmt.Exec(
			r.GameKey, r.Ply, r.Side.String(), r.Played, r.Best, r.PlayedEval, r.BestEval,
			r.Value, boolInt(r.BestIsMate), boolInt(r.PlayedIsMate), r.Text,
		)
		if err != nil {
			return fmt.Errorf("insert move_scores ply %d: %w", r.Ply, err)
		}
	}
	return tx.Commit()
}

// InsertRun records an extraction run.
func (db *DB) InsertRun(r model.RunRecord) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO runs(id, started_at, configuration, files, games, reported)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt, r.Configuration, r.Files, r.Games, r.Reported,
	)
	return err
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(limit int) ([]model.RunRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, started_at, configuration, files, games, reported
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunRecord
	for rows.Next() {
		var r model.RunRecord
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Configuration, &r.Files, &r.Games, &r.Reported); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const gameColumns = `game_key, file_hash, white, black, game_date, result, hash_code,
	book_depth, search_depth, engine, analysed_plies`

func scanGame(sc interface{ Scan(...any) error }, g *model.GameSummary) error {
	return sc.Scan(&g.GameKey, &g.FileHash, &g.White, &g.Black, &g.Date, &g.Result, &g.HashCode,
		&g.BookDepth, &g.SearchDepth, &g.Engine, &g.AnalysedPlies)
}

// ListGames returns all stored games ordered by date desc.
func (db *DB) ListGames() ([]model.GameSummary, error) {
	rows, err := db.conn.Query(`SELECT ` + gameColumns + ` FROM games ORDER BY game_date DESC, game_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GameSummary
	for rows.Next() {
		var g model.GameSummary
		if err := scanGame(rows, &g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetGameByPrefix finds the first game whose key starts with the given prefix.
func (db *DB) GetGameByPrefix(prefix string) (*model.GameSummary, error) {
	var g model.GameSummary
	err := scanGame(db.conn.QueryRow(`SELECT `+gameColumns+` FROM games WHERE game_key LIKE ? ORDER BY game_key LIMIT 1`, prefix+"%"), &g)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

const statsColumns = `game_key, side, name, is_white, game_date, result, hash_code,
	num_scores, num_moves, score_sum, within_count, ae, sd, cv, low_threshold, matched`

func scanStats(rows *sql.Rows) (model.StoredPlayerStats, error) {
	var s model.StoredPlayerStats
	var side string
	var isWhite, matched int
	var ae, sd, cv sql.NullFloat64
	err := rows.Scan(&s.GameKey, &side, &s.Name, &isWhite, &s.Date, &s.Result, &s.HashCode,
		&s.NumScores, &s.NumMoves, &s.ScoreSum, &s.WithinCount, &ae, &sd, &cv, &s.LowThreshold, &matched)
	if err != nil {
		return s, err
	}
	s.Side, _ = model.ParseSide(side)
	s.IsWhite = isWhite != 0
	s.Matched = matched != 0
	s.AE, s.SD, s.CV = ae.Float64, sd.Float64, cv.Float64
	return s, nil
}

func (db *DB) queryStats(query string, args ...any) ([]model.StoredPlayerStats, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StoredPlayerStats
	for rows.Next() {
		s, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetPlayerGameStats returns both sides' statistics for a game, white first.
func (db *DB) GetPlayerGameStats(gameKey string) ([]model.StoredPlayerStats, error) {
	return db.queryStats(`SELECT `+statsColumns+` FROM player_game_stats
		WHERE game_key = ? ORDER BY side DESC`, gameKey)
}

// GetAllPlayerGameStats returns every stored row for a player name
// (case-insensitive), ordered chronologically.
func (db *DB) GetAllPlayerGameStats(name string) ([]model.StoredPlayerStats, error) {
	return db.queryStats(`SELECT `+statsColumns+` FROM player_game_stats
		WHERE name = ? COLLATE NOCASE ORDER BY game_date, game_key`, name)
}

// GetMoveScores returns the resolved moves of one side of a game in ply order.
func (db *DB) GetMoveScores(gameKey string, side model.Side) ([]model.MoveScoreRow, error) {
	rows, err := db.conn.Query(`
		SELECT ply, played, best, played_eval, best_eval, value, best_is_mate, played_is_mate, score_text
		FROM move_scores WHERE game_key = ? AND side = ? ORDER BY ply`, gameKey, side.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MoveScoreRow
	for rows.Next() {
		r := model.MoveScoreRow{GameKey: gameKey, Side: side}
		var bestMate, playedMate int
		if err := rows.Scan(&r.Ply, &r.Played, &r.Best, &r.PlayedEval, &r.BestEval,
			&r.Value, &bestMate, &playedMate, &r.Text); err != nil {
			return nil, err
		}
		r.BestIsMate = bestMate != 0
		r.PlayedIsMate = playedMate != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetDBOverview returns high-level counts for the summary command.
func (db *DB) GetDBOverview() (model.DBOverview, error) {
	var ov model.DBOverview
	var earliest, latest sql.NullString
	err := db.conn.QueryRow(`
		SELECT COUNT(1), MIN(NULLIF(game_date, '')), MAX(NULLIF(game_date, '')) FROM games`).
		Scan(&ov.TotalGames, &earliest, &latest)
	if err != nil {
		return ov, err
	}
	ov.EarliestDate, ov.LatestDate = earliest.String, latest.String

	if err := db.conn.QueryRow(`SELECT COUNT(1) FROM analysis_files`).Scan(&ov.TotalFiles); err != nil {
		return ov, err
	}
	if err := db.conn.QueryRow(`
		SELECT COUNT(DISTINCT name COLLATE NOCASE), COUNT(CASE WHEN matched = 1 THEN 1 END)
		FROM player_game_stats`).Scan(&ov.UniquePlayers, &ov.MatchedRows); err != nil {
		return ov, err
	}
	if err := db.conn.QueryRow(`SELECT COUNT(1) FROM move_scores`).Scan(&ov.TotalMoves); err != nil {
		return ov, err
	}
	return ov, nil
}

// GetTopPlayersByGames returns the players with the most stored games.
func (db *DB) GetTopPlayersByGames(limit int) ([]model.PlayerActivity, error) {
	rows, err := db.conn.Query(`
		SELECT MIN(name), COUNT(1),
		       CAST(SUM(score_sum) AS REAL) / NULLIF(SUM(num_scores), 0),
		       CAST(SUM(within_count) AS REAL) / NULLIF(SUM(num_scores), 0),
		       SUM(matched)
		FROM player_game_stats
		GROUP BY name COLLATE NOCASE
		ORDER BY COUNT(1) DESC, MIN(name)
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerActivity
	for rows.Next() {
		var p model.PlayerActivity
		var ae, cv sql.NullFloat64
		if err := rows.Scan(&p.Name, &p.Games, &ae, &cv, &p.Matched); err != nil {
			return nil, err
		}
		p.AvgAE, p.AvgCV = ae.Float64, cv.Float64
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetResultCounts counts games per Result tag.
func (db *DB) GetResultCounts() ([]model.ResultCount, error) {
	rows, err := db.conn.Query(`
		SELECT result, COUNT(1) FROM games GROUP BY result ORDER BY COUNT(1) DESC, result`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ResultCount
	for rows.Next() {
		var r model.ResultCount
		if err := rows.Scan(&r.Result, &r.Games); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns the column names and the rows
// rendered as strings. NULL renders as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch t := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(t)
			default:
				row[i] = fmt.Sprint(t)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
