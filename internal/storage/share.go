package storage

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/frankie1ny/charitysuperbowl/internal/models"
)

// ShareParam is the query parameter carrying an embedded state snapshot.
const ShareParam = "data"

// LongURLThreshold is the encoded length above which share links start
// misbehaving in some browsers and QR generators. Past it the UI tells
// the operator to prefer the backup file.
const LongURLThreshold = 7000

// EncodeShareURL embeds the full state into a shareable link:
// <base>?data=<base64 JSON>.
func EncodeShareURL(base string, state models.AppState) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse share base url: %w", err)
	}
	data, err := EncodeSnapshot(state)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(ShareParam, base64.StdEncoding.EncodeToString(data))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DecodeShareParam parses the raw data parameter of a share link.
// There is no integrity check: whoever crafts the parameter crafts the
// state, which is inherent to serverless sharing.
func DecodeShareParam(raw string) (models.AppState, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return models.AppState{}, fmt.Errorf("decode share payload: %w", err)
	}
	return DecodeSnapshot(data)
}

// IsLongURL reports whether a share link exceeds the safe length.
func IsLongURL(link string) bool {
	return len(link) > LongURLThreshold
}
