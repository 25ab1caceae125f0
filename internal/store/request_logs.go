// ABOUTME: Request log storage operations.
// ABOUTME: Handles inserting and querying HTTP request logs for the log browser.

package store

import (
	"time"

	"go.uber.org/zap"
)

// RequestLog represents an HTTP request log entry
type RequestLog struct {
	ID           int64
	Timestamp    time.Time
	Section      string
	Method       string
	Path         string
	StatusCode   int
	DurationMs   int
	SessionID    string
	IPAddress    string
	UserAgent    string
	Error        string
	RequestBody  string
	ResponseBody string
}

const requestLogColumns = `id, timestamp, COALESCE(section, ''), method, path, status_code, duration_ms,
	COALESCE(session_id, ''), COALESCE(ip_address, ''), COALESCE(user_agent, ''), COALESCE(error, ''),
	COALESCE(request_body, ''), COALESCE(response_body, '')`

// LogRequest inserts a request log entry
func (s *Store) LogRequest(log *RequestLog) error {
	_, err := s.db.Exec(`
		INSERT INTO request_logs (section, method, path, status_code, duration_ms, session_id, ip_address, user_agent, error, request_body, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.Section, log.Method, log.Path, log.StatusCode, log.DurationMs, log.SessionID, log.IPAddress, log.UserAgent, log.Error, log.RequestBody, log.ResponseBody)
	if err != nil {
		s.logger.Warn("failed to record request", zap.String("path", log.Path), zap.Error(err))
	}
	return err
}

// RequestLogQuery represents filters for request logs
type RequestLogQuery struct {
	Limit      int
	Offset     int
	Section    string
	Method     string
	PathPrefix string
	StatusCode int
	SessionID  string
}

// RequestLogStats represents aggregate statistics
type RequestLogStats struct {
	TotalRequests   int
	TodayRequests   int
	ErrorRequests   int
	AvgDurationMs   int
	UniqueEndpoints int
	UniqueSessions  int
}

// EndpointStat is one row of the most requested endpoints.
type EndpointStat struct {
	Path  string
	Count int
	AvgMs int
}

// GetRequestLogs retrieves request logs with filtering
func (s *Store) GetRequestLogs(q *RequestLogQuery) ([]*RequestLog, error) {
	query := "SELECT " + requestLogColumns + " FROM request_logs WHERE 1=1"
	args := []any{}

	if q.Section != "" {
		query += " AND section = ?"
		args = append(args, q.Section)
	}
	if q.Method != "" {
		query += " AND method = ?"
		args = append(args, q.Method)
	}
	if q.PathPrefix != "" {
		query += ` AND path LIKE ? ESCAPE '\'`
		args = append(args, escapeSQLLike(q.PathPrefix)+"%")
	}
	if q.StatusCode > 0 {
		query += " AND status_code = ?"
		args = append(args, q.StatusCode)
	}
	if q.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, q.SessionID)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, q.Offset)

	return s.queryRequestLogs(query, args...)
}

// GetRequestLogStats returns aggregate statistics
func (s *Store) GetRequestLogStats() (*RequestLogStats, error) {
	stats := &RequestLogStats{}
	today := time.Now().UTC().Format("2006-01-02")

	queries := []struct {
		sql  string
		args []any
		dest any
	}{
		{"SELECT COUNT(*) FROM request_logs", nil, &stats.TotalRequests},
		{"SELECT COUNT(*) FROM request_logs WHERE date(timestamp) = ?", []any{today}, &stats.TodayRequests},
		{"SELECT COUNT(*) FROM request_logs WHERE status_code >= 400", nil, &stats.ErrorRequests},
		{"SELECT CAST(COALESCE(AVG(duration_ms), 0) AS INTEGER) FROM request_logs", nil, &stats.AvgDurationMs},
		{"SELECT COUNT(DISTINCT path) FROM request_logs", nil, &stats.UniqueEndpoints},
		{"SELECT COUNT(DISTINCT session_id) FROM request_logs WHERE session_id != ''", nil, &stats.UniqueSessions},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.sql, q.args...).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// GetTopEndpoints returns the most frequently requested endpoints
func (s *Store) GetTopEndpoints(limit int) ([]EndpointStat, error) {
	rows, err := s.db.Query(`
		SELECT path, COUNT(*) as count, AVG(duration_ms) as avg_ms
		FROM request_logs
		GROUP BY path
		ORDER BY count DESC, path ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var endpoints []EndpointStat
	for rows.Next() {
		var e EndpointStat
		var avgMs float64
		if err := rows.Scan(&e.Path, &e.Count, &avgMs); err != nil {
			return nil, err
		}
		e.AvgMs = int(avgMs)
		endpoints = append(endpoints, e)
	}
	return endpoints, rows.Err()
}

// GetSectionRequestCount returns the number of requests for a section since a given time
func (s *Store) GetSectionRequestCount(section string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*)
		FROM request_logs
		WHERE section = ? AND timestamp >= ?
	`, section, since.UTC()).Scan(&count)
	return count, err
}

// GetSectionErrorRate returns the error rate percentage for a section since a given time
func (s *Store) GetSectionErrorRate(section string, since time.Time) (float64, error) {
	var totalCount, errorCount int
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END), 0)
		FROM request_logs
		WHERE section = ? AND timestamp >= ?
	`, section, since.UTC()).Scan(&totalCount, &errorCount)
	if err != nil {
		return 0, err
	}

	// No requests means 0% error rate
	if totalCount == 0 {
		return 0, nil
	}
	return (float64(errorCount) / float64(totalCount)) * 100.0, nil
}

// GetRecentRequests returns the most recent requests for a section
func (s *Store) GetRecentRequests(section string, limit int) ([]*RequestLog, error) {
	query := "SELECT " + requestLogColumns + ` FROM request_logs
		WHERE section = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`
	return s.queryRequestLogs(query, section, limit)
}

// DeleteRequestLogs removes every request log entry.
func (s *Store) DeleteRequestLogs() (int64, error) {
	res, err := s.db.Exec("DELETE FROM request_logs")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) queryRequestLogs(query string, args ...any) ([]*RequestLog, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*RequestLog
	for rows.Next() {
		log := &RequestLog{}
		if err := rows.Scan(&log.ID, &log.Timestamp, &log.Section, &log.Method, &log.Path, &log.StatusCode,
			&log.DurationMs, &log.SessionID, &log.IPAddress, &log.UserAgent, &log.Error,
			&log.RequestBody, &log.ResponseBody); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
