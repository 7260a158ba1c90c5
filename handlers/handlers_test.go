package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AndreyBeserra/Helppybot/assets"
	"github.com/AndreyBeserra/Helppybot/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

type call struct {
	edit bool
	what interface{}
	opts []interface{}
}

// fakeContext records what handlers send. Only the methods the handlers use
// are implemented; anything else panics on the nil embedded Context.
type fakeContext struct {
	tele.Context
	callback *tele.Callback
	message  *tele.Message
	store    map[string]interface{}
	calls    []call
	sendErr  error
	editErr  error
}

func tap(id string) *fakeContext {
	return &fakeContext{callback: &tele.Callback{Data: "\f" + id}}
}

func command() *fakeContext {
	return &fakeContext{}
}

func (f *fakeContext) Callback() *tele.Callback { return f.callback }

func (f *fakeContext) Message() *tele.Message { return f.message }

func (f *fakeContext) Chat() *tele.Chat {
	if f.message == nil {
		return nil
	}
	return f.message.Chat
}

func (f *fakeContext) Sender() *tele.User {
	if f.message == nil {
		return nil
	}
	return f.message.Sender
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.calls = append(f.calls, call{what: what, opts: opts})
	return nil
}

func (f *fakeContext) EditOrSend(what interface{}, opts ...interface{}) error {
	if f.callback == nil {
		return f.Send(what, opts...)
	}
	if f.editErr != nil {
		return f.editErr
	}
	f.calls = append(f.calls, call{edit: true, what: what, opts: opts})
	return nil
}

func (f *fakeContext) Get(key string) interface{} { return f.store[key] }

func (f *fakeContext) Set(key string, val interface{}) {
	if f.store == nil {
		f.store = map[string]interface{}{}
	}
	f.store[key] = val
}

func keyboardOf(t *testing.T, c call) [][]tele.InlineButton {
	t.Helper()
	for _, opt := range c.opts {
		if m, ok := opt.(*tele.ReplyMarkup); ok {
			return m.InlineKeyboard
		}
	}
	t.Fatalf("no keyboard in %#v", c)
	return nil
}

func ids(rows [][]tele.InlineButton) []string {
	var out []string
	for _, row := range rows {
		for _, b := range row {
			out = append(out, b.Unique)
		}
	}
	return out
}

type recordingBot struct {
	endpoints map[string]tele.HandlerFunc
}

func (b *recordingBot) Handle(endpoint interface{}, h tele.HandlerFunc, m ...tele.MiddlewareFunc) {
	if b.endpoints == nil {
		b.endpoints = map[string]tele.HandlerFunc{}
	}
	b.endpoints[endpoint.(string)] = h
}

type staticCatalog struct{ c *catalog.Catalog }

func (s staticCatalog) Catalog() *catalog.Catalog { return s.c }

func setup(t *testing.T) (*recordingBot, *Router, string) {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)

	root := t.TempDir()
	bot := &recordingBot{}
	router := NewRouter(bot, zap.NewNop())
	Register(router, Deps{
		Log:     zap.NewNop(),
		Catalog: staticCatalog{c},
		Assets:  assets.New(root, zap.NewNop()),
		PerRow:  2,
	})
	return bot, router, root
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o600))
}

func TestRegisterRoutesCommandsToBot(t *testing.T) {
	bot, router, _ := setup(t)
	assert.Contains(t, bot.endpoints, "/start")
	assert.Contains(t, bot.endpoints, "/help")
	assert.Contains(t, bot.endpoints, "/menu")
	assert.Contains(t, bot.endpoints, tele.OnCallback)
	assert.ElementsMatch(t, ReservedIDs(), router.IDs())
}

func TestStartSendsWelcome(t *testing.T) {
	bot, _, _ := setup(t)
	for _, cmd := range []string{"/start", "/help"} {
		c := command()
		require.NoError(t, bot.endpoints[cmd](c))
		require.Len(t, c.calls, 1)
		assert.False(t, c.calls[0].edit)
		assert.Contains(t, c.calls[0].what, "*Helppy*")
		assert.Contains(t, c.calls[0].opts, tele.ModeMarkdown)
		assert.Equal(t, []string{MainMenuID}, ids(keyboardOf(t, c.calls[0])))
	}
}

func TestMainMenu(t *testing.T) {
	bot, _, _ := setup(t)
	c := tap(MainMenuID)
	require.NoError(t, bot.endpoints[tele.OnCallback](c))

	require.Len(t, c.calls, 1)
	assert.True(t, c.calls[0].edit)
	assert.Equal(t, mainMenuText, c.calls[0].what)
	rows := keyboardOf(t, c.calls[0])
	require.Len(t, rows, 2)
	assert.Equal(t, []string{AssistanceID, AboutID, TeamID}, ids(rows))
}

func TestMenuCommandSendsMainMenu(t *testing.T) {
	bot, _, _ := setup(t)
	c := command()
	require.NoError(t, bot.endpoints["/menu"](c))
	require.Len(t, c.calls, 1)
	assert.False(t, c.calls[0].edit)
	assert.Equal(t, mainMenuText, c.calls[0].what)
}

func TestAssistanceListsTutorialsInOrder(t *testing.T) {
	_, router, _ := setup(t)
	c := tap(AssistanceID)
	require.NoError(t, router.Dispatch(c))

	require.Len(t, c.calls, 1)
	assert.Equal(t, assistanceText, c.calls[0].what)
	rows := keyboardOf(t, c.calls[0])
	assert.Equal(t, []string{"internet", "bateria", "armazenamento", MainMenuID}, ids(rows))
	assert.Equal(t, "📶 Problemas com Internet", rows[0][0].Text)
	assert.Equal(t, "🔙 Voltar", rows[1][1].Text)
}

func TestTutorialShowsStepsImagesAndBackButton(t *testing.T) {
	_, router, root := setup(t)
	touch(t, filepath.Join(root, "internet", "2.png"))
	touch(t, filepath.Join(root, "internet", "1.png"))

	c := tap("internet")
	require.NoError(t, router.Dispatch(c))

	require.Len(t, c.calls, 4)
	assert.True(t, c.calls[0].edit)
	assert.Contains(t, c.calls[0].what, "*📶 Problemas com Internet*\n\n1. Acesse")
	assert.Equal(t, filepath.Join(root, "internet", "1.png"), c.calls[1].what.(*tele.Photo).FileLocal)
	assert.Equal(t, filepath.Join(root, "internet", "2.png"), c.calls[2].what.(*tele.Photo).FileLocal)
	assert.Equal(t, moreHelpText, c.calls[3].what)
	assert.Equal(t, []string{AssistanceID}, ids(keyboardOf(t, c.calls[3])))
}

func TestTutorialWithoutImages(t *testing.T) {
	_, router, _ := setup(t)
	c := tap("bateria")
	require.NoError(t, router.Dispatch(c))

	require.Len(t, c.calls, 3)
	assert.Equal(t, assets.MsgImagesSoon, c.calls[1].what)
	assert.Equal(t, moreHelpText, c.calls[2].what)
}

func TestAbout(t *testing.T) {
	_, router, _ := setup(t)
	c := tap(AboutID)
	require.NoError(t, router.Dispatch(c))

	require.Len(t, c.calls, 2)
	assert.True(t, c.calls[0].edit)
	assert.Contains(t, c.calls[0].what, "Seu Assistente Técnico Digital")
	assert.Equal(t, learnMoreText, c.calls[1].what)
	assert.Equal(t, []string{TeamID, MainMenuID}, ids(keyboardOf(t, c.calls[1])))
}

func TestTeam(t *testing.T) {
	_, router, root := setup(t)
	touch(t, filepath.Join(root, "equipe", "lucas.png"))

	c := tap(TeamID)
	require.NoError(t, router.Dispatch(c))

	// summary, five members, trailing keyboard
	require.Len(t, c.calls, 7)
	assert.True(t, c.calls[0].edit)
	assert.Contains(t, c.calls[0].what, "Equipe Help-U")
	photo := c.calls[1].what.(*tele.Photo)
	assert.Contains(t, photo.Caption, "Lucas Ryan Albuquerque")
	assert.Contains(t, c.calls[2].what, "Andrey Beserra")
	assert.Contains(t, c.calls[2].what, assets.MsgPhotoUnavailable)
	assert.Equal(t, whatNextText, c.calls[6].what)
	assert.Equal(t, []string{AboutID, MainMenuID}, ids(keyboardOf(t, c.calls[6])))
}

func TestTeamFolderMissingSkipsKeyboard(t *testing.T) {
	_, router, _ := setup(t)
	c := tap(TeamID)
	require.NoError(t, router.Dispatch(c))

	require.Len(t, c.calls, 2)
	assert.Equal(t, assets.MsgTeamFolderAbsent, c.calls[1].what)
}

func TestTeamEditFailureReportsDifficulties(t *testing.T) {
	_, router, _ := setup(t)
	c := tap(TeamID)
	c.editErr = errors.New("telegram: Bad Request: message to edit not found (400)")
	require.NoError(t, router.Dispatch(c))

	require.Len(t, c.calls, 1)
	assert.Equal(t, technicalDifficulties, c.calls[0].what)
}

func TestSameContentEditIsNotAnError(t *testing.T) {
	_, router, _ := setup(t)
	c := tap(MainMenuID)
	c.editErr = tele.ErrSameMessageContent
	assert.NoError(t, router.Dispatch(c))
}

func TestUnknownCallbackIsIgnored(t *testing.T) {
	_, router, _ := setup(t)
	c := tap("does-not-exist")
	require.NoError(t, router.Dispatch(c))
	assert.Empty(t, c.calls)
}

func TestTutorialResolvedFromCurrentCatalog(t *testing.T) {
	c, err := catalog.Parse([]byte("tutorials:\n  - {key: wifi, title: Wi-Fi, steps: '1. on'}\n"))
	require.NoError(t, err)
	src := &swappableCatalog{c: c}

	router := NewRouter(&recordingBot{}, zap.NewNop())
	Register(router, Deps{Log: zap.NewNop(), Catalog: src, Assets: assets.New(t.TempDir(), zap.NewNop())})

	ctx := tap("bluetooth")
	require.NoError(t, router.Dispatch(ctx))
	assert.Empty(t, ctx.calls)

	src.c, err = catalog.Parse([]byte("tutorials:\n  - {key: bluetooth, title: Bluetooth, steps: '1. pair'}\n"))
	require.NoError(t, err)

	ctx = tap("bluetooth")
	require.NoError(t, router.Dispatch(ctx))
	require.NotEmpty(t, ctx.calls)
	assert.Equal(t, "*Bluetooth*\n\n1. pair", ctx.calls[0].what)
}

type swappableCatalog struct{ c *catalog.Catalog }

func (s *swappableCatalog) Catalog() *catalog.Catalog { return s.c }

func TestCallbackID(t *testing.T) {
	assert.Equal(t, "equipe", CallbackID(&tele.Callback{Unique: "equipe"}))
	assert.Equal(t, "equipe", CallbackID(&tele.Callback{Data: "\fequipe"}))
	assert.Equal(t, "equipe", CallbackID(&tele.Callback{Data: "\fequipe|payload"}))
	assert.Equal(t, "menu_principal", CallbackID(&tele.Callback{Data: "menu_principal"}))
}

func TestRouterAppliesRouteMiddleware(t *testing.T) {
	router := NewRouter(&recordingBot{}, zap.NewNop())
	var order []string
	mw := func(name string) tele.MiddlewareFunc {
		return func(next tele.HandlerFunc) tele.HandlerFunc {
			return func(c tele.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}
	router.Handle(&tele.Btn{Unique: "x"}, func(tele.Context) error {
		order = append(order, "handler")
		return nil
	}, mw("first"), mw("second"))

	require.NoError(t, router.Dispatch(tap("x")))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

type developerMock struct {
	mock.Mock
}

func (m *developerMock) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	args := m.Called(to.Recipient(), what)
	return nil, args.Error(1)
}

func (m *developerMock) Forward(to tele.Recipient, msg tele.Editable, opts ...interface{}) (*tele.Message, error) {
	id, _ := msg.MessageSig()
	args := m.Called(to.Recipient(), id)
	return nil, args.Error(1)
}

func text(chat *tele.Chat, body string) *fakeContext {
	return &fakeContext{message: &tele.Message{
		ID:     31,
		Chat:   chat,
		Sender: &tele.User{ID: chat.ID, FirstName: "Ana", Username: "ana"},
		Text:   body,
	}}
}

var private = &tele.Chat{ID: 700, Type: tele.ChatPrivate}

func feedbackRouter(dev developerBot, devChat int64) *recordingBot {
	bot := &recordingBot{}
	c, _ := catalog.Default()
	Register(NewRouter(bot, zap.NewNop()), Deps{
		Log:             zap.NewNop(),
		Catalog:         staticCatalog{c},
		PerRow:          2,
		Developer:       dev,
		DeveloperChatID: devChat,
	})
	return bot
}

func TestFreeTextWithoutDeveloperPointsToMenu(t *testing.T) {
	bot := feedbackRouter(nil, 0)
	c := text(private, "meu celular não liga")
	require.NoError(t, bot.endpoints[tele.OnText](c))

	require.Len(t, c.calls, 1)
	assert.Equal(t, useMenuText, c.calls[0].what)
	assert.Equal(t, []string{MainMenuID}, ids(keyboardOf(t, c.calls[0])))
}

func TestFreeTextIsForwardedToDeveloper(t *testing.T) {
	dev := &developerMock{}
	dev.On("Send", "99", "📨 Mensagem de [700]: Ana  @ana").Return(nil, nil).Once()
	dev.On("Forward", "99", "31").Return(nil, nil).Once()

	bot := feedbackRouter(dev, 99)
	c := text(private, "obrigado!")
	require.NoError(t, bot.endpoints[tele.OnText](c))

	dev.AssertExpectations(t)
	require.Len(t, c.calls, 1)
	assert.Equal(t, feedbackThanksText, c.calls[0].what)
}

func TestFreeTextForwardFailure(t *testing.T) {
	dev := &developerMock{}
	dev.On("Send", "99", mock.Anything).Return(nil, errors.New("chat not found")).Once()

	bot := feedbackRouter(dev, 99)
	c := text(private, "oi")
	require.NoError(t, bot.endpoints[tele.OnText](c))

	require.Len(t, c.calls, 1)
	assert.Equal(t, feedbackFailedText, c.calls[0].what)
}

func TestFreeTextInGroupsIsIgnored(t *testing.T) {
	bot := feedbackRouter(nil, 0)
	c := text(&tele.Chat{ID: -100, Type: tele.ChatGroup}, "oi")
	require.NoError(t, bot.endpoints[tele.OnText](c))
	assert.Empty(t, c.calls)
}

func TestDeveloperReplyGoesToAuthor(t *testing.T) {
	dev := &developerMock{}
	dev.On("Send", "700", "Tente reiniciar o aparelho").Return(nil, nil).Once()

	bot := feedbackRouter(dev, 99)
	c := text(&tele.Chat{ID: 99, Type: tele.ChatPrivate}, "Tente reiniciar o aparelho")
	c.message.ReplyTo = &tele.Message{OriginalSender: &tele.User{ID: 700}}
	require.NoError(t, bot.endpoints[tele.OnText](c))

	dev.AssertExpectations(t)
	assert.Empty(t, c.calls)
}

func TestDeveloperReplyWithoutOriginal(t *testing.T) {
	dev := &developerMock{}
	bot := feedbackRouter(dev, 99)
	c := text(&tele.Chat{ID: 99, Type: tele.ChatPrivate}, "oi")
	require.NoError(t, bot.endpoints[tele.OnText](c))

	require.Len(t, c.calls, 1)
	assert.Equal(t, replyNoOriginalText, c.calls[0].what)
	dev.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
