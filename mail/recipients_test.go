package mail_test

import (
	"encoding/json"
	"testing"

	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
	"github.com/jrsteele09/go-graph-mail/mail"
	"github.com/stretchr/testify/require"
)

func TestRecipients_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		want mail.Recipients
	}{
		{"array", `{"to":["a@example.com","b@example.com"]}`, mail.Recipients{"a@example.com", "b@example.com"}},
		{"encoded array", `{"to":"[\"a@example.com\",\"b@example.com\"]"}`, mail.Recipients{"a@example.com", "b@example.com"}},
		{"single address", `{"to":"a@example.com"}`, mail.Recipients{"a@example.com"}},
		{"delimited", `{"to":"a@example.com; b@example.com, a@example.com"}`, mail.Recipients{"a@example.com", "b@example.com"}},
		{"duplicates and blanks", `{"to":[" a@example.com ","","A@example.com"]}`, mail.Recipients{"a@example.com"}},
		{"empty array", `{"to":[]}`, nil},
		{"null", `{"to":null}`, nil},
		{"missing", `{}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req mail.SendRequest
			require.NoError(t, json.Unmarshal([]byte(tt.json), &req))
			require.Equal(t, tt.want, req.To)
		})
	}
}

func TestRecipients_Malformed(t *testing.T) {
	for _, body := range []string{`{"to":"[\"a@example.com\""}`, `{"to":42}`, `{"to":[1,2]}`} {
		var req mail.SendRequest
		err := json.Unmarshal([]byte(body), &req)
		require.Error(t, err, body)
		require.ErrorIs(t, err, apperrors.ErrValidation, body)
	}
}

func TestParseRecipients(t *testing.T) {
	got, err := mail.ParseRecipients(`["c@example.com"]`)
	require.NoError(t, err)
	require.Equal(t, mail.Recipients{"c@example.com"}, got)

	got, err = mail.ParseRecipients("   ")
	require.NoError(t, err)
	require.Empty(t, got)
}
