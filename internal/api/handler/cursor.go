package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/argentavis/qr-service/internal/api/storage"
)

func DecodeQRCursor(cursorStr string) (*storage.QRCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	decodedParts := strings.Split(string(decoded), "|")
	if len(decodedParts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	var createdAt int64
	if _, err := fmt.Sscanf(decodedParts[0], "%d", &createdAt); err != nil {
		return nil, fmt.Errorf("invalid createdAt in cursor: %w", err)
	}

	return &storage.QRCursor{
		CreatedAt: time.Unix(0, createdAt),
		UUID:      decodedParts[1],
	}, nil
}

func EncodeQRCursor(cursor *storage.QRCursor) string {
	cs := fmt.Sprintf("%d|%s", cursor.CreatedAt.UnixNano(), cursor.UUID)
	return base64.StdEncoding.EncodeToString([]byte(cs))
}
