package forward

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"relay_bot/internal/media/cache"
	"relay_bot/internal/media/watermark"
	"relay_bot/internal/telegram/filter"
	"relay_bot/internal/telegram/models"
	"relay_bot/internal/telegram/pipeline"
)

type stubProvider struct {
	tasks      []*models.Task
	tasksErr   error
	forwarding map[string]*models.ForwardingSettings
	message    map[string]*models.MessageSettings
	cleaning   map[string]*models.TextCleaningSettings
	filters    map[string]*models.FilterSettings
	watermarks map[string]*models.WatermarkSettings
}

func (p *stubProvider) ActiveTasksForSource(ctx context.Context, sourceChatID int64, userID int64) ([]*models.Task, error) {
	return p.tasks, p.tasksErr
}

func (p *stubProvider) ActiveUserIDsForSource(ctx context.Context, sourceChatID int64) ([]int64, error) {
	return nil, nil
}

func (p *stubProvider) ForwardingSettings(ctx context.Context, taskID string) (*models.ForwardingSettings, error) {
	if s, ok := p.forwarding[taskID]; ok {
		return s, nil
	}
	return &models.ForwardingSettings{PublishingMode: models.PublishingModeAuto}, nil
}

func (p *stubProvider) MessageSettings(ctx context.Context, taskID string) (*models.MessageSettings, error) {
	if s, ok := p.message[taskID]; ok {
		return s, nil
	}
	return &models.MessageSettings{}, nil
}

func (p *stubProvider) TextCleaningSettings(ctx context.Context, taskID string) (*models.TextCleaningSettings, error) {
	if s, ok := p.cleaning[taskID]; ok {
		return s, nil
	}
	return &models.TextCleaningSettings{}, nil
}

func (p *stubProvider) ReplacementRules(ctx context.Context, taskID string) ([]models.ReplacementRule, error) {
	return nil, nil
}

func (p *stubProvider) FilterSettings(ctx context.Context, taskID string) (*models.FilterSettings, error) {
	if s, ok := p.filters[taskID]; ok {
		return s, nil
	}
	return &models.FilterSettings{}, nil
}

func (p *stubProvider) WatermarkSettings(ctx context.Context, taskID string) (*models.WatermarkSettings, error) {
	if s, ok := p.watermarks[taskID]; ok {
		return s, nil
	}
	return &models.WatermarkSettings{}, nil
}

type stubQueue struct {
	enqueued   []*models.PendingApproval
	stored     map[string]*models.PendingApproval
	resolved   map[string]string
	enqueueErr error
}

func newStubQueue() *stubQueue {
	return &stubQueue{
		stored:   make(map[string]*models.PendingApproval),
		resolved: make(map[string]string),
	}
}

func (q *stubQueue) Enqueue(ctx context.Context, approval *models.PendingApproval) (string, error) {
	if q.enqueueErr != nil {
		return "", q.enqueueErr
	}
	approval.ApprovalID = fmt.Sprintf("appr-%d", len(q.enqueued)+1)
	approval.Status = models.ApprovalStatusPending
	q.enqueued = append(q.enqueued, approval)
	q.stored[approval.ApprovalID] = approval
	return approval.ApprovalID, nil
}

func (q *stubQueue) Get(ctx context.Context, approvalID string) (*models.PendingApproval, error) {
	approval, ok := q.stored[approvalID]
	if !ok {
		return nil, fmt.Errorf("approval %s not found", approvalID)
	}
	return approval, nil
}

func (q *stubQueue) ListPending(ctx context.Context, userID int64) ([]*models.PendingApproval, error) {
	return nil, nil
}

func (q *stubQueue) Resolve(ctx context.Context, approvalID string, status string) error {
	approval, ok := q.stored[approvalID]
	if !ok || approval.Status != models.ApprovalStatusPending {
		return fmt.Errorf("approval %s not found or already resolved", approvalID)
	}
	approval.Status = status
	q.resolved[approvalID] = status
	return nil
}

func (q *stubQueue) EnsureIndexes(ctx context.Context) error { return nil }

type relayCall struct {
	target       string
	sourceChatID int64
	messageID    int
	silent       bool
}

type sendCall struct {
	target string
	out    *Outgoing
}

type copyCall struct {
	target       string
	sourceChatID int64
	messageID    int
	out          *Outgoing
}

type stubTransport struct {
	relays      []relayCall
	sends       []sendCall
	copies      []copyCall
	failTargets map[string]error
}

func (t *stubTransport) Relay(ctx context.Context, target string, sourceChatID int64, messageID int, silent bool) (*Receipt, error) {
	if err := t.failTargets[target]; err != nil {
		return nil, err
	}
	t.relays = append(t.relays, relayCall{target: target, sourceChatID: sourceChatID, messageID: messageID, silent: silent})
	return &Receipt{MessageID: 100 + len(t.relays)}, nil
}

func (t *stubTransport) ReconstructSend(ctx context.Context, target string, out *Outgoing) (*Receipt, error) {
	if err := t.failTargets[target]; err != nil {
		return nil, err
	}
	t.sends = append(t.sends, sendCall{target: target, out: out})
	return &Receipt{MessageID: 200 + len(t.sends)}, nil
}

func (t *stubTransport) Copy(ctx context.Context, target string, sourceChatID int64, messageID int, out *Outgoing) (*Receipt, error) {
	if err := t.failTargets[target]; err != nil {
		return nil, err
	}
	t.copies = append(t.copies, copyCall{target: target, sourceChatID: sourceChatID, messageID: messageID, out: out})
	return &Receipt{MessageID: 300 + len(t.copies)}, nil
}

func newTestCoordinator(provider *stubProvider, queue *stubQueue, transport *stubTransport) *Coordinator {
	c := NewCoordinator(
		provider,
		queue,
		filter.NewEngine(provider),
		pipeline.New(provider, nil),
		watermark.NewEngine(nil, ""),
		cache.New(),
		transport,
	)
	c.wait = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func forwardTask(id, target string) *models.Task {
	return &models.Task{
		TaskID:       id,
		UserID:       3001,
		Name:         "task " + id,
		SourceChatID: -2001,
		TargetChatID: target,
		ForwardMode:  models.ForwardModeForward,
	}
}

func TestHandleMessageForwardsVerbatim(t *testing.T) {
	provider := &stubProvider{tasks: []*models.Task{forwardTask("t1", "-3001")}}
	transport := &stubTransport{}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	msg := &models.InboundMessage{SourceChatID: -2001, MessageID: 7, Text: "plain news"}
	results := c.HandleMessage(context.Background(), msg, 3001)

	if len(results) != 1 || results[0].Status != StatusSent {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].Mode != models.ForwardModeForward {
		t.Fatalf("expected forward mode, got %s", results[0].Mode)
	}
	if len(transport.relays) != 1 || len(transport.sends) != 0 {
		t.Fatalf("expected exactly one relay, got relays=%d sends=%d", len(transport.relays), len(transport.sends))
	}
	call := transport.relays[0]
	if call.target != "-3001" || call.sourceChatID != -2001 || call.messageID != 7 {
		t.Fatalf("unexpected relay call: %+v", call)
	}
}

func TestHandleMessageHeaderForcesCopy(t *testing.T) {
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001")},
		message: map[string]*models.MessageSettings{
			"t1": {HeaderEnabled: true, HeaderText: "Daily digest"},
		},
	}
	transport := &stubTransport{}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	results := c.HandleMessage(context.Background(), &models.InboundMessage{SourceChatID: -2001, MessageID: 7, Text: "body"}, 3001)

	if results[0].Status != StatusSent || results[0].Mode != models.ForwardModeCopy {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if len(transport.sends) != 1 || len(transport.relays) != 0 {
		t.Fatalf("expected reconstructed send, got relays=%d sends=%d", len(transport.relays), len(transport.sends))
	}
	if got := transport.sends[0].out.Text; got != "Daily digest\n\nbody" {
		t.Fatalf("unexpected outgoing text: %q", got)
	}
}

func TestHandleMessageBlockedByFilters(t *testing.T) {
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001")},
		filters: map[string]*models.FilterSettings{
			"t1": {BlockedWords: []string{"spam"}},
		},
	}
	transport := &stubTransport{}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	results := c.HandleMessage(context.Background(), &models.InboundMessage{SourceChatID: -2001, MessageID: 7, Text: "spam offer"}, 3001)

	if results[0].Status != StatusBlocked {
		t.Fatalf("expected blocked, got %+v", results[0])
	}
	if len(transport.relays)+len(transport.sends) != 0 {
		t.Fatalf("blocked message must not be delivered")
	}
}

func TestHandleMessageManualPublishingQueuesApproval(t *testing.T) {
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001")},
		forwarding: map[string]*models.ForwardingSettings{
			"t1": {PublishingMode: models.PublishingModeManual},
		},
	}
	queue := newStubQueue()
	transport := &stubTransport{}
	c := newTestCoordinator(provider, queue, transport)

	msg := &models.InboundMessage{SourceChatID: -2001, MessageID: 7, Text: "needs review", FileName: "pic.jpg", HasMedia: true}
	results := c.HandleMessage(context.Background(), msg, 3001)

	if results[0].Status != StatusPending || results[0].ApprovalID == "" {
		t.Fatalf("expected pending with approval id, got %+v", results[0])
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("expected one enqueued approval, got %d", len(queue.enqueued))
	}
	approval := queue.enqueued[0]
	if approval.TaskID != "t1" || approval.Text != "needs review" || approval.FileName != "pic.jpg" {
		t.Fatalf("unexpected approval snapshot: %+v", approval)
	}
	if len(transport.relays)+len(transport.sends) != 0 {
		t.Fatalf("pending message must not be delivered")
	}
}

func TestHandleMessageTaskFailureDoesNotStopOthers(t *testing.T) {
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001"), forwardTask("t2", "-3002")},
	}
	transport := &stubTransport{failTargets: map[string]error{"-3001": errors.New("chat unreachable")}}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	results := c.HandleMessage(context.Background(), &models.InboundMessage{SourceChatID: -2001, MessageID: 7, Text: "hi"}, 3001)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusFailed || results[0].Err == nil {
		t.Fatalf("expected first task to fail, got %+v", results[0])
	}
	if results[1].Status != StatusSent {
		t.Fatalf("expected second task to send, got %+v", results[1])
	}
}

func TestHandleMessageSendingIntervalBetweenDispatches(t *testing.T) {
	interval := 5 * time.Second
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001"), forwardTask("t2", "-3002"), forwardTask("t3", "-3003")},
		forwarding: map[string]*models.ForwardingSettings{
			"t1": {PublishingMode: models.PublishingModeAuto, SendingInterval: interval},
			"t2": {PublishingMode: models.PublishingModeAuto, SendingInterval: interval},
			"t3": {PublishingMode: models.PublishingModeAuto, SendingInterval: interval},
		},
	}
	transport := &stubTransport{}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	var waits []time.Duration
	c.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	c.HandleMessage(context.Background(), &models.InboundMessage{SourceChatID: -2001, MessageID: 7, Text: "hi"}, 3001)

	// 首条立即发出，之后每条之前等待一次
	if len(waits) != 2 {
		t.Fatalf("expected 2 waits, got %d", len(waits))
	}
	for _, d := range waits {
		if d != interval {
			t.Fatalf("unexpected wait duration %v", d)
		}
	}
}

func TestHandleMessageStripForwardMarkForcesCopy(t *testing.T) {
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001")},
		filters: map[string]*models.FilterSettings{
			"t1": {StripForwardMark: true},
		},
	}
	transport := &stubTransport{}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	results := c.HandleMessage(context.Background(), &models.InboundMessage{SourceChatID: -2001, MessageID: 7, Text: "hi", Forwarded: true}, 3001)

	if results[0].Mode != models.ForwardModeCopy {
		t.Fatalf("expected copy mode, got %+v", results[0])
	}
	if len(transport.sends) != 1 || len(transport.relays) != 0 {
		t.Fatalf("expected reconstructed send")
	}
}

func TestHandleMessageStripButtonsSuppressesCustomButtons(t *testing.T) {
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001")},
		filters: map[string]*models.FilterSettings{
			"t1": {StripButtons: true},
		},
		message: map[string]*models.MessageSettings{
			"t1": {
				InlineButtonsEnabled: true,
				InlineButtons:        []models.ButtonRow{{{Text: "open", URL: "https://example.com"}}},
			},
		},
	}
	transport := &stubTransport{}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	results := c.HandleMessage(context.Background(), &models.InboundMessage{SourceChatID: -2001, MessageID: 7, Text: "hi", HasButtons: true}, 3001)

	if results[0].Mode != models.ForwardModeCopy {
		t.Fatalf("expected copy mode, got %+v", results[0])
	}
	if len(transport.sends) != 1 {
		t.Fatalf("expected reconstructed send")
	}
	if transport.sends[0].out.Buttons != nil {
		t.Fatalf("expected stripped buttons, got %+v", transport.sends[0].out.Buttons)
	}
}

func TestHandleMessageAttachesConfiguredButtons(t *testing.T) {
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001")},
		message: map[string]*models.MessageSettings{
			"t1": {
				InlineButtonsEnabled: true,
				InlineButtons:        []models.ButtonRow{{{Text: "open", URL: "https://example.com"}}},
			},
		},
	}
	transport := &stubTransport{}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	c.HandleMessage(context.Background(), &models.InboundMessage{SourceChatID: -2001, MessageID: 7, Text: "hi"}, 3001)

	if len(transport.sends) != 1 {
		t.Fatalf("expected reconstructed send")
	}
	buttons := transport.sends[0].out.Buttons
	if len(buttons) != 1 || len(buttons[0]) != 1 || buttons[0][0].Text != "open" {
		t.Fatalf("unexpected buttons: %+v", buttons)
	}
}

func TestHandleMessageRemoveCaptionDropsTextKeepsMedia(t *testing.T) {
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001")},
		cleaning: map[string]*models.TextCleaningSettings{
			"t1": {RemoveCaption: true},
		},
	}
	transport := &stubTransport{}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	msg := &models.InboundMessage{
		SourceChatID: -2001,
		MessageID:    7,
		Text:         "caption to drop",
		HasMedia:     true,
		MediaBytes:   []byte{0x01, 0x02},
		FileName:     "pic.jpg",
	}
	results := c.HandleMessage(context.Background(), msg, 3001)

	if results[0].Mode != models.ForwardModeCopy {
		t.Fatalf("expected copy mode, got %+v", results[0])
	}
	out := transport.sends[0].out
	if out.Text != "" {
		t.Fatalf("expected empty caption, got %q", out.Text)
	}
	if out.FileName != "pic.jpg" || len(out.Media) == 0 {
		t.Fatalf("expected media to survive caption removal: %+v", out)
	}
}

func TestHandleMessageSilentAndLinkPreviewPropagate(t *testing.T) {
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001")},
		forwarding: map[string]*models.ForwardingSettings{
			"t1": {PublishingMode: models.PublishingModeAuto, SilentNotifications: true, LinkPreviewEnabled: true},
		},
		message: map[string]*models.MessageSettings{
			"t1": {FooterEnabled: true, FooterText: "mirror"},
		},
	}
	transport := &stubTransport{}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	c.HandleMessage(context.Background(), &models.InboundMessage{SourceChatID: -2001, MessageID: 7, Text: "hi"}, 3001)

	out := transport.sends[0].out
	if !out.Silent || !out.LinkPreview {
		t.Fatalf("expected transport options to propagate: %+v", out)
	}
}

func TestHandleMessageNoTasks(t *testing.T) {
	c := newTestCoordinator(&stubProvider{}, newStubQueue(), &stubTransport{})

	results := c.HandleMessage(context.Background(), &models.InboundMessage{SourceChatID: -2001, MessageID: 7, Text: "hi"}, 3001)
	if results != nil {
		t.Fatalf("expected nil results without tasks, got %+v", results)
	}
}

func TestHandleMessageWatermarkSkipsUnmatchedMediaType(t *testing.T) {
	// 水印只开了图片：视频原字节透传，不经过水印引擎
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001")},
		watermarks: map[string]*models.WatermarkSettings{
			"t1": {
				Enabled:       true,
				Type:          models.WatermarkTypeText,
				Text:          "mark",
				ApplyToPhotos: true,
			},
		},
		cleaning: map[string]*models.TextCleaningSettings{
			"t1": {RemoveCaption: true},
		},
	}
	transport := &stubTransport{}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	raw := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	msg := &models.InboundMessage{
		SourceChatID: -2001,
		MessageID:    7,
		Text:         "caption",
		HasMedia:     true,
		MediaBytes:   raw,
		FileName:     "clip.mp4",
	}
	results := c.HandleMessage(context.Background(), msg, 3001)

	if results[0].Status != StatusSent || results[0].Mode != models.ForwardModeCopy {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if len(transport.sends) != 1 {
		t.Fatalf("expected reconstructed send")
	}
	if !bytes.Equal(transport.sends[0].out.Media, raw) {
		t.Fatalf("video bytes must pass through untouched when only photos are watermarked")
	}
}

func TestHandleMessageMediaWithoutBytesCopiesByReference(t *testing.T) {
	// 媒体下载失败时走引用复制，不退化为纯文本
	provider := &stubProvider{
		tasks: []*models.Task{forwardTask("t1", "-3001")},
		message: map[string]*models.MessageSettings{
			"t1": {HeaderEnabled: true, HeaderText: "Daily digest"},
		},
	}
	transport := &stubTransport{}
	c := newTestCoordinator(provider, newStubQueue(), transport)

	msg := &models.InboundMessage{
		SourceChatID: -2001,
		MessageID:    7,
		Text:         "caption",
		HasMedia:     true,
		FileName:     "pic.jpg",
	}
	results := c.HandleMessage(context.Background(), msg, 3001)

	if results[0].Status != StatusSent || results[0].Mode != models.ForwardModeCopy {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if len(transport.copies) != 1 || len(transport.sends) != 0 {
		t.Fatalf("expected copy by reference, got copies=%d sends=%d", len(transport.copies), len(transport.sends))
	}
	call := transport.copies[0]
	if call.sourceChatID != -2001 || call.messageID != 7 {
		t.Fatalf("unexpected copy call: %+v", call)
	}
	if call.out.Text != "Daily digest\n\ncaption" {
		t.Fatalf("unexpected caption: %q", call.out.Text)
	}
}

func TestApprovePublishesAndResolves(t *testing.T) {
	provider := &stubProvider{tasks: []*models.Task{forwardTask("t1", "-3001")}}
	queue := newStubQueue()
	transport := &stubTransport{}
	c := newTestCoordinator(provider, queue, transport)

	approvalID, err := queue.Enqueue(context.Background(), &models.PendingApproval{
		TaskID:       "t1",
		UserID:       3001,
		SourceChatID: -2001,
		MessageID:    7,
		Text:         "approved content",
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	mode, err := c.Approve(context.Background(), approvalID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if mode != models.ForwardModeForward {
		t.Fatalf("expected forward mode, got %s", mode)
	}
	if len(transport.relays) != 1 {
		t.Fatalf("expected one relay, got %d", len(transport.relays))
	}
	if queue.resolved[approvalID] != models.ApprovalStatusApproved {
		t.Fatalf("expected approval marked approved, got %q", queue.resolved[approvalID])
	}
}

func TestApproveCopyModeMediaCopiesByReference(t *testing.T) {
	// 审核快照不带媒体字节：放行复制模式任务时按引用复制，媒体得以保留
	task := forwardTask("t1", "-3001")
	task.ForwardMode = models.ForwardModeCopy
	provider := &stubProvider{tasks: []*models.Task{task}}
	queue := newStubQueue()
	transport := &stubTransport{}
	c := newTestCoordinator(provider, queue, transport)

	approvalID, err := queue.Enqueue(context.Background(), &models.PendingApproval{
		TaskID:       "t1",
		UserID:       3001,
		SourceChatID: -2001,
		MessageID:    7,
		Text:         "approved caption",
		FileName:     "pic.jpg",
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	mode, err := c.Approve(context.Background(), approvalID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if mode != models.ForwardModeCopy {
		t.Fatalf("expected copy mode, got %s", mode)
	}
	if len(transport.copies) != 1 || len(transport.sends) != 0 {
		t.Fatalf("expected copy by reference, got copies=%d sends=%d", len(transport.copies), len(transport.sends))
	}
	if transport.copies[0].out.Text != "approved caption" {
		t.Fatalf("unexpected caption: %q", transport.copies[0].out.Text)
	}
	if queue.resolved[approvalID] != models.ApprovalStatusApproved {
		t.Fatalf("expected approval marked approved, got %q", queue.resolved[approvalID])
	}
}

func TestApproveAlreadyResolved(t *testing.T) {
	provider := &stubProvider{tasks: []*models.Task{forwardTask("t1", "-3001")}}
	queue := newStubQueue()
	c := newTestCoordinator(provider, queue, &stubTransport{})

	approvalID, _ := queue.Enqueue(context.Background(), &models.PendingApproval{
		TaskID: "t1", UserID: 3001, SourceChatID: -2001, MessageID: 7,
	})
	if err := queue.Resolve(context.Background(), approvalID, models.ApprovalStatusRejected); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if _, err := c.Approve(context.Background(), approvalID); err == nil {
		t.Fatalf("expected error for resolved approval")
	}
}

func TestApproveTaskNoLongerActive(t *testing.T) {
	provider := &stubProvider{} // 无启用任务
	queue := newStubQueue()
	c := newTestCoordinator(provider, queue, &stubTransport{})

	approvalID, _ := queue.Enqueue(context.Background(), &models.PendingApproval{
		TaskID: "t1", UserID: 3001, SourceChatID: -2001, MessageID: 7,
	})

	if _, err := c.Approve(context.Background(), approvalID); err == nil {
		t.Fatalf("expected error when task is gone")
	}
	if queue.stored[approvalID].Status != models.ApprovalStatusPending {
		t.Fatalf("approval must stay pending when delivery is impossible")
	}
}

func TestRejectResolvesWithoutDelivery(t *testing.T) {
	queue := newStubQueue()
	transport := &stubTransport{}
	c := newTestCoordinator(&stubProvider{}, queue, transport)

	approvalID, _ := queue.Enqueue(context.Background(), &models.PendingApproval{
		TaskID: "t1", UserID: 3001, SourceChatID: -2001, MessageID: 7,
	})

	if err := c.Reject(context.Background(), approvalID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if queue.resolved[approvalID] != models.ApprovalStatusRejected {
		t.Fatalf("expected rejected status, got %q", queue.resolved[approvalID])
	}
	if len(transport.relays)+len(transport.sends) != 0 {
		t.Fatalf("rejected approval must not be delivered")
	}
}
