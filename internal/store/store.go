// Package store is the persistence boundary for users, tracked routes,
// passengers, route-state fingerprints, and the catalogue of routes and
// stations. It follows the teacher's embedded-SQLite idiom: WAL mode,
// a bounded busy timeout, and explicit transactions for bulk writes.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/radityaharya/bus-tracker/internal/domain"
)

// UserWithRoutes is the result of the supervisor's one startup query:
// an enabled user together with every tracked route and passenger
// count it owns.
type UserWithRoutes struct {
	User   domain.User
	Routes []RouteWithPassengers
}

// RouteWithPassengers pairs a TrackedRoute with its 1-to-1 passenger
// configuration.
type RouteWithPassengers struct {
	Route      domain.TrackedRoute
	Passengers domain.PassengerCount
}

// Repository is the persistence contract the tracker depends on. Kept
// as an interface so tracker/supervisor tests can substitute a fake
// instead of standing up SQLite.
type Repository interface {
	EnabledUsersWithRoutes(ctx context.Context) ([]UserWithRoutes, error)
	RouteState(ctx context.Context, trackedRouteID string) (domain.RouteState, bool, error)
	SaveRouteState(ctx context.Context, st domain.RouteState) error
	Route(ctx context.Context, routeID string) (domain.Route, bool, error)
	Station(ctx context.Context, code string) (domain.Station, bool, error)
	UpsertCatalogRoutes(ctx context.Context, routes []domain.Route) error
	UpsertCatalogStations(ctx context.Context, stations []domain.Station) error
}

// SQLiteStore implements Repository atop database/sql + go-sqlite3.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dsn, applies the teacher's pragmas, and ensures
// the schema exists.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: apply %q: %w", pragma, err)
		}
	}
	// A single-writer embedded database is acceptable per spec; capping
	// the pool to one connection avoids SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		enabled INTEGER NOT NULL DEFAULT 1,
		poll_interval_secs INTEGER NOT NULL DEFAULT 300,
		webhook_url TEXT,
		notify_on_change_only INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS tracked_routes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		area_id TEXT NOT NULL,
		route_id TEXT NOT NULL,
		origin_code TEXT NOT NULL,
		dest_code TEXT NOT NULL,
		date_start TEXT NOT NULL,
		date_end TEXT NOT NULL,
		time_min TEXT,
		time_max TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_tracked_routes_user_id ON tracked_routes(user_id);

	CREATE TABLE IF NOT EXISTS passenger_counts (
		tracked_route_id TEXT PRIMARY KEY REFERENCES tracked_routes(id),
		adult_men INTEGER NOT NULL DEFAULT 0,
		adult_women INTEGER NOT NULL DEFAULT 0,
		child_men INTEGER NOT NULL DEFAULT 0,
		child_women INTEGER NOT NULL DEFAULT 0,
		handicap_adult_men INTEGER NOT NULL DEFAULT 0,
		handicap_adult_women INTEGER NOT NULL DEFAULT 0,
		handicap_child_men INTEGER NOT NULL DEFAULT 0,
		handicap_child_women INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS route_states (
		tracked_route_id TEXT PRIMARY KEY REFERENCES tracked_routes(id),
		last_seen_hash TEXT,
		last_check DATETIME,
		total_checks INTEGER NOT NULL DEFAULT 0,
		total_alerts INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS catalog_routes (
		route_id TEXT PRIMARY KEY,
		area_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		changed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS catalog_stations (
		code TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		area_id TEXT,
		route_id TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// EnabledUsersWithRoutes loads every enabled user together with its
// tracked routes and passenger counts in one pass, for the supervisor's
// single startup query.
func (s *SQLiteStore) EnabledUsersWithRoutes(ctx context.Context) ([]UserWithRoutes, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, enabled, poll_interval_secs, webhook_url, notify_on_change_only
		FROM users WHERE enabled = 1`)
	if err != nil {
		return nil, fmt.Errorf("store: query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var webhook sql.NullString
		if err := rows.Scan(&u.ID, &u.Enabled, &u.PollIntervalSecs, &webhook, &u.NotifyOnChangeOnly); err != nil {
			return nil, fmt.Errorf("store: scan user: %w", err)
		}
		u.WebhookURL = webhook.String
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]UserWithRoutes, 0, len(users))
	for _, u := range users {
		routes, err := s.routesForUser(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, UserWithRoutes{User: u, Routes: routes})
	}
	return result, nil
}

func (s *SQLiteStore) routesForUser(ctx context.Context, userID string) ([]RouteWithPassengers, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tr.id, tr.area_id, tr.route_id, tr.origin_code, tr.dest_code,
		       tr.date_start, tr.date_end, tr.time_min, tr.time_max,
		       pc.adult_men, pc.adult_women, pc.child_men, pc.child_women,
		       pc.handicap_adult_men, pc.handicap_adult_women, pc.handicap_child_men, pc.handicap_child_women
		FROM tracked_routes tr
		LEFT JOIN passenger_counts pc ON pc.tracked_route_id = tr.id
		WHERE tr.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: query tracked routes: %w", err)
	}
	defer rows.Close()

	var out []RouteWithPassengers
	for rows.Next() {
		var (
			r                  domain.TrackedRoute
			dateStart, dateEnd string
			timeMin, timeMax   sql.NullString
			p                  domain.PassengerCount
		)
		if err := rows.Scan(
			&r.ID, &r.AreaID, &r.RouteID, &r.OriginCode, &r.DestCode,
			&dateStart, &dateEnd, &timeMin, &timeMax,
			&p.AdultMen, &p.AdultWomen, &p.ChildMen, &p.ChildWomen,
			&p.HandicapAdultMen, &p.HandicapAdultWomen, &p.HandicapChildMen, &p.HandicapChildWomen,
		); err != nil {
			return nil, fmt.Errorf("store: scan tracked route: %w", err)
		}

		r.UserID = userID
		if r.DateStart, err = domain.ParseDate(dateStart); err != nil {
			return nil, fmt.Errorf("store: tracked route %s: %w", r.ID, err)
		}
		if r.DateEnd, err = domain.ParseDate(dateEnd); err != nil {
			return nil, fmt.Errorf("store: tracked route %s: %w", r.ID, err)
		}
		if timeMin.Valid && timeMax.Valid {
			r.TimeFilter = &domain.TimeWindow{Min: timeMin.String, Max: timeMax.String}
		}
		p.TrackedRouteID = r.ID

		out = append(out, RouteWithPassengers{Route: r, Passengers: p})
	}
	return out, rows.Err()
}

// RouteState loads the persisted fingerprint/counters for a route.
// Returns (zero value, false, nil) if no observation has completed yet.
func (s *SQLiteStore) RouteState(ctx context.Context, trackedRouteID string) (domain.RouteState, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT last_seen_hash, last_check, total_checks, total_alerts
		FROM route_states WHERE tracked_route_id = ?`, trackedRouteID)

	var (
		hash       sql.NullString
		lastCheck  sql.NullTime
		checks, alerts int64
	)
	if err := row.Scan(&hash, &lastCheck, &checks, &alerts); err != nil {
		if err == sql.ErrNoRows {
			return domain.RouteState{}, false, nil
		}
		return domain.RouteState{}, false, fmt.Errorf("store: scan route state: %w", err)
	}

	st := domain.RouteState{
		TrackedRouteID: trackedRouteID,
		TotalChecks:    checks,
		TotalAlerts:    alerts,
	}
	if lastCheck.Valid {
		st.LastCheck = lastCheck.Time
	}
	if hash.Valid {
		var h uint64
		if _, err := fmt.Sscanf(hash.String, "%d", &h); err == nil {
			st.LastSeenHash = &h
		}
	}
	return st, true, nil
}

// SaveRouteState atomically upserts the route's fingerprint and
// counters.
func (s *SQLiteStore) SaveRouteState(ctx context.Context, st domain.RouteState) error {
	var hashText sql.NullString
	if st.LastSeenHash != nil {
		hashText = sql.NullString{String: fmt.Sprintf("%d", *st.LastSeenHash), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO route_states (tracked_route_id, last_seen_hash, last_check, total_checks, total_alerts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tracked_route_id) DO UPDATE SET
			last_seen_hash = excluded.last_seen_hash,
			last_check = excluded.last_check,
			total_checks = excluded.total_checks,
			total_alerts = excluded.total_alerts`,
		st.TrackedRouteID, hashText, st.LastCheck, st.TotalChecks, st.TotalAlerts,
	)
	if err != nil {
		return fmt.Errorf("store: save route state: %w", err)
	}
	return nil
}

// Route looks up a catalogue route by ID.
func (s *SQLiteStore) Route(ctx context.Context, routeID string) (domain.Route, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT route_id, area_id, display_name, changed FROM catalog_routes WHERE route_id = ?`, routeID)
	var r domain.Route
	if err := row.Scan(&r.RouteID, &r.AreaID, &r.DisplayName, &r.Changed); err != nil {
		if err == sql.ErrNoRows {
			return domain.Route{}, false, nil
		}
		return domain.Route{}, false, fmt.Errorf("store: scan route: %w", err)
	}
	return r, true, nil
}

// Station looks up a catalogue station by code.
func (s *SQLiteStore) Station(ctx context.Context, code string) (domain.Station, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT code, display_name, area_id, route_id FROM catalog_stations WHERE code = ?`, code)
	var st domain.Station
	var areaID, routeID sql.NullString
	if err := row.Scan(&st.Code, &st.DisplayName, &areaID, &routeID); err != nil {
		if err == sql.ErrNoRows {
			return domain.Station{}, false, nil
		}
		return domain.Station{}, false, fmt.Errorf("store: scan station: %w", err)
	}
	st.AreaID = areaID.String
	st.RouteID = routeID.String
	return st, true, nil
}

// UpsertCatalogRoutes inserts or updates the given routes in one
// transaction. Routes already stored but absent from the list are kept,
// not deleted.
func (s *SQLiteStore) UpsertCatalogRoutes(ctx context.Context, routes []domain.Route) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO catalog_routes (route_id, area_id, display_name, changed) VALUES (?, ?, ?, ?)
		ON CONFLICT(route_id) DO UPDATE SET area_id = excluded.area_id, display_name = excluded.display_name, changed = excluded.changed`)
	if err != nil {
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range routes {
		if _, err := stmt.ExecContext(ctx, r.RouteID, r.AreaID, r.DisplayName, r.Changed); err != nil {
			return fmt.Errorf("store: upsert route %s: %w", r.RouteID, err)
		}
	}
	return tx.Commit()
}

// UpsertCatalogStations is the station-catalogue analogue of
// UpsertCatalogRoutes.
func (s *SQLiteStore) UpsertCatalogStations(ctx context.Context, stations []domain.Station) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO catalog_stations (code, display_name, area_id, route_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET display_name = excluded.display_name, area_id = excluded.area_id, route_id = excluded.route_id`)
	if err != nil {
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, st := range stations {
		if _, err := stmt.ExecContext(ctx, st.Code, st.DisplayName, st.AreaID, st.RouteID); err != nil {
			return fmt.Errorf("store: upsert station %s: %w", st.Code, err)
		}
	}
	return tx.Commit()
}
