package core

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"botadmin/entity"
	"botadmin/internal/store"
	"botadmin/lib/sl"
)

type UserStore interface {
	Register(id int64, username, firstName, lastName string) entity.User
	Get(id int64) (entity.User, bool)
	FindByUsername(username string) (int64, bool)
	Ids() []int64
	Count() int
}

type AccessStore interface {
	IsAuthorized(id int64) bool
	IsBanned(id int64) bool
	Authorize(id int64) bool
	Ban(id int64) bool
	Unban(id int64) bool
	GenerateCode(issuerId int64, issuerName string) (string, string, error)
	MarkUsed(code string, userId int64, username string) bool
	ListActive() []entity.AccessCode
	ListUsed() []entity.AccessCode
	PurgeExpired() int
	Snapshot() entity.AccessDocument
}

type BroadcastStore interface {
	Create(broadcast entity.Broadcast) string
	Get(id string) (*entity.Broadcast, bool)
	List() []store.BroadcastItem
	RecordDelivery(id string, userId, messageId int64) bool
	UpdateContent(id, content string, entities []entity.MessageEntity) bool
	Delete(id string) bool
	Save() bool
}

type AuthService interface {
	IsAdmin(id int64) bool
	AdminIds() []int64
	UserByToken(token string) (string, error)
}

// Options tunes the facade; zero values fall back to defaults.
type Options struct {
	CleanupDelay time.Duration
	UnbanDelay   time.Duration
	MaxBatch     int
}

// Core is the admin facade: it gates admin operations, mutates the stores
// and drives the Messenger. Every bot handler returns the next flow state.
type Core struct {
	users      UserStore
	access     AccessStore
	broadcasts BroadcastStore
	auth       AuthService
	msg        Messenger
	log        *slog.Logger
	opts       Options

	sessions *sessions
	pending  sync.WaitGroup
}

func New(users UserStore, access AccessStore, broadcasts BroadcastStore, auth AuthService, log *slog.Logger, opts Options) *Core {
	if users == nil || access == nil || broadcasts == nil || auth == nil {
		panic("core: stores and auth service are required")
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = 20
	}
	if opts.CleanupDelay < 0 {
		opts.CleanupDelay = 0
	}
	if opts.UnbanDelay < 0 {
		opts.UnbanDelay = 0
	}
	return &Core{
		users:      users,
		access:     access,
		broadcasts: broadcasts,
		auth:       auth,
		log:        log.With(sl.Module("core")),
		opts:       opts,
		sessions:   newSessions(),
	}
}

func (c *Core) SetMessenger(msg Messenger) {
	c.msg = msg
}

func (c *Core) IsAdmin(id int64) bool {
	return c.auth.IsAdmin(id)
}

func (c *Core) AdminIds() []int64 {
	return c.auth.AdminIds()
}

// IsAuthorized reports whether id may use the bot beyond the public commands.
func (c *Core) IsAuthorized(id int64) bool {
	return c.auth.IsAdmin(id) || c.access.IsAuthorized(id)
}

func (c *Core) AuthenticateByToken(token string) (string, error) {
	return c.auth.UserByToken(token)
}

// RegisterUser records the actor's profile snapshot.
func (c *Core) RegisterUser(actor Actor) {
	if actor.Id == 0 {
		return
	}
	c.users.Register(actor.Id, actor.Username, actor.FirstName, actor.LastName)
}

// guard recovers a panicking handler and degrades it to CHOOSING.
func (c *Core) guard(handler string, state *entity.State) {
	if r := recover(); r != nil {
		c.log.With(slog.String("handler", handler)).Error("handler panicked", sl.Err(fmt.Errorf("%v", r)))
		*state = entity.StateChoosing
	}
}

// later runs fn after delay on its own goroutine; nothing waits for it except Wait.
func (c *Core) later(delay time.Duration, name string, fn func() error) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				c.log.With(slog.String("task", name)).Error("delayed task panicked", sl.Err(fmt.Errorf("%v", r)))
			}
		}()
		if delay > 0 {
			time.Sleep(delay)
		}
		if err := fn(); err != nil {
			c.log.With(slog.String("task", name)).Warn("delayed task failed", sl.Err(err))
		}
	}()
}

// deleteLater removes a transient message after the cleanup delay.
func (c *Core) deleteLater(chatId, messageId int64) {
	if messageId == 0 {
		return
	}
	c.later(c.opts.CleanupDelay, "delete message", func() error {
		return c.msg.Delete(chatId, messageId)
	})
}

// Wait blocks until every scheduled delayed task has finished.
func (c *Core) Wait() {
	c.pending.Wait()
}

func (c *Core) send(chatId int64, out Outgoing) int64 {
	id, err := c.msg.SendText(chatId, out)
	if err != nil {
		c.log.With(slog.Int64("chat_id", chatId)).Warn("sending message", sl.Err(err))
		return 0
	}
	return id
}

func (c *Core) edit(chatId, messageId int64, out Outgoing) {
	if err := c.msg.EditText(chatId, messageId, out); err != nil {
		c.log.With(slog.Int64("chat_id", chatId), slog.Int64("message_id", messageId)).Warn("editing message", sl.Err(err))
	}
}

func (c *Core) remove(chatId, messageId int64) {
	if messageId == 0 {
		return
	}
	if err := c.msg.Delete(chatId, messageId); err != nil {
		c.log.With(slog.Int64("chat_id", chatId), slog.Int64("message_id", messageId)).Debug("deleting message", sl.Err(err))
	}
}

func (c *Core) answer(cb Callback, text string, alert bool) {
	if cb.Id == "" {
		return
	}
	if err := c.msg.Answer(cb.Id, text, alert); err != nil {
		c.log.Debug("answering callback", sl.Err(err))
	}
}

// reply sends a transient notice that is deleted after the cleanup delay.
func (c *Core) reply(chatId int64, text string) {
	c.deleteLater(chatId, c.send(chatId, Outgoing{Text: text}))
}
