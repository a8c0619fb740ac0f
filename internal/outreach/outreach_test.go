package outreach

import (
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/require"

	"leadscout-engine/internal/store"
)

func TestMailerSendRequiresRecipient(t *testing.T) {
	m := Mailer{Settings: store.Settings{SMTPHost: "smtp.example.com", SMTPPort: 587}}
	require.Error(t, m.Send("   ", "subject", "body"))
}

func TestMailerRequiresConfiguredEndpoint(t *testing.T) {
	require.Error(t, Mailer{}.Verify())
	require.Error(t, Mailer{Settings: store.Settings{SMTPHost: "smtp.example.com"}}.Verify(),
		"missing port")
}

func TestDialIMAPValidation(t *testing.T) {
	t.Run("missing endpoint", func(t *testing.T) {
		_, err := dialIMAP(store.Settings{}, "pw")
		require.ErrorContains(t, err, "not configured")
	})
	t.Run("missing credentials", func(t *testing.T) {
		_, err := dialIMAP(store.Settings{IMAPHost: "imap.example.com", IMAPPort: 993}, "")
		require.ErrorContains(t, err, "username/password")
	})
}

func TestFormatAddresses(t *testing.T) {
	addrs := []imap.Address{
		{Name: "Ada", Mailbox: "ada", Host: "example.com"},
		{Mailbox: "", Host: "example.com"},
		{Mailbox: "bob", Host: "example.org"},
	}
	require.Equal(t, "ada@example.com, bob@example.org", formatAddresses(addrs))
	require.Equal(t, "", formatAddresses(nil))
}
