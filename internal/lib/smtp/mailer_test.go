package smtp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestMailer_Send(t *testing.T) {
	d := &fakeDialer{}
	m := NewMailerWithDialer(d, "billing@swingcoach.local")

	err := m.Send([]string{"ops@example.com", "coach@example.com"}, "New payment", "Kim sent 29900")
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	msg := d.sent[0]
	assert.Equal(t, []string{"billing@swingcoach.local"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"ops@example.com", "coach@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"New payment"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Kim sent 29900")
}

func TestMailer_SendErrors(t *testing.T) {
	m := NewMailerWithDialer(&fakeDialer{err: errors.New("connection refused")}, "from@example.com")

	err := m.Send([]string{"ops@example.com"}, "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.Send")

	err = m.Send(nil, "s", "b")
	assert.Error(t, err)
}
