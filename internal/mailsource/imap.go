package mailsource

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"dailyfix/config"
	"dailyfix/internal/fault"
)

const imapTimeout = 30 * time.Second

// IMAPSource reads unseen messages from a mailbox over IMAP. Consumed
// messages are flagged \Seen so later sync runs skip them.
type IMAPSource struct {
	client  *client.Client
	mailbox string
	logger  *zap.Logger
}

func NewIMAPSource(cfg config.IMAPConfig, logger *zap.Logger) (*IMAPSource, error) {
	cl, err := client.DialTLS(cfg.Server, nil)
	if err != nil {
		return nil, fault.Externalf(err, "imap dial %s", cfg.Server)
	}
	if err := cl.Login(cfg.Username, cfg.Password); err != nil {
		cl.Logout()
		return nil, fault.Externalf(err, "imap login")
	}
	if _, err := cl.Select(cfg.Mailbox, false); err != nil {
		cl.Logout()
		return nil, fault.Externalf(err, "imap select %s", cfg.Mailbox)
	}
	logger.Info("IMAP source ready",
		zap.String("server", cfg.Server),
		zap.String("mailbox", cfg.Mailbox),
	)
	return &IMAPSource{client: cl, mailbox: cfg.Mailbox, logger: logger}, nil
}

func (s *IMAPSource) ListUnseen(_ context.Context, window time.Duration) ([]string, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Since = time.Now().Add(-window)

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fault.Externalf(err, "imap search")
	}

	ids := make([]string, 0, len(uids))
	for _, uid := range uids {
		ids = append(ids, strconv.FormatUint(uint64(uid), 10))
	}
	return ids, nil
}

func (s *IMAPSource) Fetch(_ context.Context, id string) (*RawMessage, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fault.Validationf("bad imap uid %q", id)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchInternalDate, imap.FetchUid}

	prevTimeout := s.client.Timeout
	s.client.Timeout = imapTimeout
	defer func() { s.client.Timeout = prevTimeout }()

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}
	if err := <-done; err != nil {
		return nil, fault.Externalf(err, "imap fetch uid %d", uid)
	}
	if msg == nil {
		return nil, fault.NotFoundf("imap message uid %d", uid)
	}

	raw, err := parseIMAPMessage(msg)
	if err != nil {
		return nil, err
	}
	raw.SourceID = id
	return raw, nil
}

func (s *IMAPSource) MarkConsumed(_ context.Context, id string) error {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return fault.Validationf("bad imap uid %q", id)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := s.client.UidStore(seqSet, item, flags, nil); err != nil {
		return fault.Externalf(err, "imap store uid %d", uid)
	}
	return nil
}

func (s *IMAPSource) Close() error {
	return s.client.Logout()
}

func parseIMAPMessage(msg *imap.Message) (*RawMessage, error) {
	section := &imap.BodySectionName{}
	r := msg.GetBody(section)
	if r == nil {
		return nil, fault.Externalf(nil, "imap message uid %d has no body section", msg.Uid)
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fault.Externalf(err, "parse message uid %d", msg.Uid)
	}

	headers := map[string]string{}
	fields := mr.Header.Fields()
	for fields.Next() {
		if _, ok := headers[fields.Key()]; !ok {
			headers[fields.Key()] = fields.Value()
		}
	}
	if subject, err := mr.Header.Subject(); err == nil && subject != "" {
		headers["Subject"] = subject
	}

	var body strings.Builder
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fault.Externalf(err, "read message part uid %d", msg.Uid)
		}

		if h, ok := p.Header.(*mail.InlineHeader); ok {
			contentType, _, err := h.ContentType()
			if err != nil {
				continue
			}
			if contentType == "text/plain" {
				text, err := io.ReadAll(p.Body)
				if err != nil {
					continue
				}
				body.Write(text)
			}
		}
	}

	received := msg.InternalDate
	if received.IsZero() {
		received = time.Now()
	}

	return &RawMessage{
		Headers:    headers,
		Body:       body.String(),
		ReceivedAt: received,
	}, nil
}
