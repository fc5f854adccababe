package mail

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"filedepot-idp/internal/core/config"
)

type fakeDialer struct {
	messages []*gomail.Message
	err      error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, m...)
	return nil
}

func testConfig() config.SMTP {
	return config.SMTP{
		Host:          "localhost",
		Port:          1025,
		SenderName:    "FileDepot",
		SenderAddress: "no-reply@filedepot.local",
	}
}

func render(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSendEmailConfirmation(t *testing.T) {
	d := &fakeDialer{}
	mt := NewMailerWithDialer(testConfig(), d)

	err := mt.Send("email-confirmation", "a@x.com", map[string]string{
		"UI_URL": "http://ui.local",
		"TOKEN":  "tok123abc",
	})
	require.NoError(t, err)
	require.Len(t, d.messages, 1)

	m := d.messages[0]
	assert.Equal(t, []string{"a@x.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Confirm your email"}, m.GetHeader("Subject"))

	body := render(t, m)
	assert.Contains(t, body, "tok123abc")
	assert.Contains(t, body, "confirm-email")
}

func TestSendResetPassword(t *testing.T) {
	d := &fakeDialer{}
	mt := NewMailerWithDialer(testConfig(), d)

	err := mt.Send("reset-password", "a@x.com", map[string]string{
		"UI_URL": "http://ui.local",
		"TOKEN":  "tok456def",
	})
	require.NoError(t, err)
	require.Len(t, d.messages, 1)

	body := render(t, d.messages[0])
	assert.Contains(t, body, "tok456def")
	assert.Contains(t, body, "new-password")
}

func TestSendUnknownTemplate(t *testing.T) {
	mt := NewMailerWithDialer(testConfig(), &fakeDialer{})
	err := mt.Send("no-such-template", "a@x.com", nil)
	require.Error(t, err)
}

func TestSendDialerFailure(t *testing.T) {
	d := &fakeDialer{err: assert.AnError}
	mt := NewMailerWithDialer(testConfig(), d)

	err := mt.Send("email-confirmation", "a@x.com", map[string]string{
		"UI_URL": "http://ui.local",
		"TOKEN":  "tok",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
