package storage

import (
	"context"
	"fmt"
)

// UsageStats aggregates one command category.
type UsageStats struct {
	Count    int
	Commands map[string]int
}

// TimeSeriesPoint is the command count of one UTC day.
type TimeSeriesPoint struct {
	Timestamp int64
	Count     int
}

type UsageLog struct{ db DB }

func NewUsageLog(db DB) *UsageLog { return &UsageLog{db: db} }

func (u *UsageLog) Record(ctx context.Context, chatID, userID int64, command, category string, ts int64) error {
	_, err := u.db.ExecContext(ctx, `INSERT INTO usage(chat_id,user_id,command,category,ts) VALUES(?,?,?,?,?)`,
		chatID, userID, command, category, ts)
	return err
}

// Stats counts commands per category since ts.
func (u *UsageLog) Stats(ctx context.Context, since int64) (map[string]*UsageStats, error) {
	rows, err := u.db.QueryContext(ctx,
		`SELECT category, command, COUNT(*) FROM usage WHERE ts>=? GROUP BY category, command`, since)
	if err != nil {
		return nil, fmt.Errorf("usage stats: %w", err)
	}
	defer rows.Close()

	out := map[string]*UsageStats{}
	for rows.Next() {
		var category, command string
		var n int
		if err := rows.Scan(&category, &command, &n); err != nil {
			return nil, err
		}
		st, ok := out[category]
		if !ok {
			st = &UsageStats{Commands: map[string]int{}}
			out[category] = st
		}
		st.Count += n
		st.Commands[command] += n
	}
	return out, rows.Err()
}

// TimeSeries buckets command counts per category by UTC day since ts.
func (u *UsageLog) TimeSeries(ctx context.Context, since int64) (map[string][]TimeSeriesPoint, error) {
	rows, err := u.db.QueryContext(ctx,
		`SELECT category, (ts/86400)*86400 AS day, COUNT(*) FROM usage WHERE ts>=?
		 GROUP BY category, day ORDER BY day ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("usage time series: %w", err)
	}
	defer rows.Close()

	out := map[string][]TimeSeriesPoint{}
	for rows.Next() {
		var category string
		var p TimeSeriesPoint
		if err := rows.Scan(&category, &p.Timestamp, &p.Count); err != nil {
			return nil, err
		}
		out[category] = append(out[category], p)
	}
	return out, rows.Err()
}
