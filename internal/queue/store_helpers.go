package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const mutationColumns = "id, type, payload, client_id, status, retry_count, error_message, created_at, updated_at"

// timeFormat is RFC 3339 with a fixed-width fractional second so that stored
// timestamps order lexicographically; RFC3339Nano strips trailing zeros and
// breaks ORDER BY created_at.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func nowTimestamp() string {
	return time.Now().UTC().Format(timeFormat)
}

func scanMutation(scanner interface{ Scan(dest ...any) error }) (*Mutation, error) {
	var (
		id           string
		typeStr      string
		payload      string
		clientID     string
		statusStr    string
		retryCount   int
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&typeStr,
		&payload,
		&clientID,
		&statusStr,
		&retryCount,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	mutation := &Mutation{
		ID:         id,
		Type:       MutationType(typeStr),
		Payload:    json.RawMessage(payload),
		ClientID:   clientID,
		Status:     Status(statusStr),
		RetryCount: retryCount,
		Error:      errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		mutation.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		mutation.UpdatedAt = updated
	}
	return mutation, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
