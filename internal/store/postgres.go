package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reeezaw1/rzarmndrv01/internal/domain"
)

const uniqueViolation = "23505"

// PostgresRepo implements Repo on a pgx connection pool.
type PostgresRepo struct{ pool *pgxpool.Pool }

// Open connects to Postgres, verifies the connection, runs migrations and
// returns a repository. The pool serves concurrent tick workers and HTTP
// handlers; pgxpool sizes itself from the DSN (pool_max_conns) or CPU count.
func Open(ctx context.Context, databaseURL string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if err := RunMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return &PostgresRepo{pool: pool}, nil
}

// Close releases the connection pool.
func (r *PostgresRepo) Close() {
	r.pool.Close()
}

// CreateUser inserts a new user with its freshly generated secret token.
func (r *PostgresRepo) CreateUser(ctx context.Context, telegramID int64, secretToken string) (*domain.User, error) {
	u := &domain.User{TelegramID: telegramID, SecretToken: secretToken}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, secret_token)
		VALUES ($1, $2)
		RETURNING created_at`,
		telegramID, secretToken,
	).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

// GetUser returns a user by telegram ID or domain.ErrUserNotFound.
func (r *PostgresRepo) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	u := &domain.User{}
	err := r.pool.QueryRow(ctx, `
		SELECT telegram_id, secret_token, COALESCE(time_zone, ''), created_at
		FROM users
		WHERE telegram_id = $1`,
		telegramID,
	).Scan(&u.TelegramID, &u.SecretToken, &u.TimeZone, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// SetTimeZone updates a user's IANA zone.
func (r *PostgresRepo) SetTimeZone(ctx context.Context, telegramID int64, tz string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET time_zone = $1 WHERE telegram_id = $2`,
		tz, telegramID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CreateReminder inserts a reminder and fills in its generated ID,
// status and creation time.
func (r *PostgresRepo) CreateReminder(ctx context.Context, rem *domain.Reminder) error {
	var status string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reminders (user_id, task_name, description, schedule_type, schedule_data, time_zone)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		RETURNING id, status, created_at`,
		rem.UserID, rem.TaskName, rem.Description,
		string(rem.ScheduleType), string(rem.ScheduleData), rem.TimeZone,
	).Scan(&rem.ID, &status, &rem.CreatedAt)
	if err != nil {
		return err
	}
	rem.Status = domain.Status(status)
	return nil
}

const reminderColumns = `
	id, user_id, task_name, COALESCE(description, ''),
	schedule_type, schedule_data, time_zone, status, created_at`

// ListUserReminders returns all of a user's reminders, newest first.
func (r *PostgresRepo) ListUserReminders(ctx context.Context, telegramID int64) ([]domain.Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		telegramID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

// ListActiveReminders returns every reminder the due-check pass must
// evaluate, in one batch.
func (r *PostgresRepo) ListActiveReminders(ctx context.Context) ([]domain.Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE status = $1
		ORDER BY id`,
		string(domain.StatusActive),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

// UpdateReminderStatus transitions a reminder's status.
func (r *PostgresRepo) UpdateReminderStatus(ctx context.Context, id int64, status domain.Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders SET status = $1 WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func scanReminders(rows pgx.Rows) ([]domain.Reminder, error) {
	var res []domain.Reminder
	for rows.Next() {
		var (
			rem          domain.Reminder
			scheduleType string
			scheduleData string
			status       string
		)
		if err := rows.Scan(
			&rem.ID, &rem.UserID, &rem.TaskName, &rem.Description,
			&scheduleType, &scheduleData, &rem.TimeZone, &status, &rem.CreatedAt,
		); err != nil {
			return nil, err
		}
		rem.ScheduleType = domain.ScheduleType(scheduleType)
		rem.ScheduleData = []byte(scheduleData)
		rem.Status = domain.Status(status)
		res = append(res, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
