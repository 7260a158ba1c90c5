package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AndreyBeserra/Helppybot/handlers/middleware"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Resolver finds a handler for ids that are not known at registration time.
type Resolver func(id string) (tele.HandlerFunc, bool)

// Router routes callback queries by button id and hands everything else to the bot.
// All callbacks reach it through tele.OnCallback, so routes can be resolved
// against data that changes while the bot runs.
type Router struct {
	bot       botMux
	log       *zap.Logger
	routes    map[string]tele.HandlerFunc
	resolvers []Resolver
}

func NewRouter(bot botMux, log *zap.Logger) *Router {
	r := &Router{bot: bot, log: log, routes: make(map[string]tele.HandlerFunc)}
	bot.Handle(tele.OnCallback, r.Dispatch)
	return r
}

// Handle registers a button id (string or *tele.Btn). Commands and telebot
// events ("/start", tele.OnText, ...) are passed through to the bot.
func (r *Router) Handle(endpoint interface{}, h tele.HandlerFunc, m ...tele.MiddlewareFunc) {
	var id string
	switch end := endpoint.(type) {
	case *tele.Btn:
		id = end.Unique
	case string:
		if strings.HasPrefix(end, "/") || strings.HasPrefix(end, "\a") {
			r.bot.Handle(end, h, m...)
			return
		}
		id = end
	default:
		panic(fmt.Sprintf("router: unsupported endpoint %T", endpoint))
	}
	if id == "" {
		panic("router: empty callback id")
	}
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	r.routes[id] = h
}

func (r *Router) Resolve(resolver Resolver) {
	r.resolvers = append(r.resolvers, resolver)
}

// IDs lists the statically registered button ids.
func (r *Router) IDs() []string {
	ids := make([]string, 0, len(r.routes))
	for id := range r.routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Router) Dispatch(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	id := CallbackID(cb)
	if h, ok := r.routes[id]; ok {
		return h(c)
	}
	for _, resolve := range r.resolvers {
		if h, ok := resolve(id); ok {
			return h(c)
		}
	}
	middleware.Logger(c, r.log).Warn("Unhandled callback", zap.String("id", id), zap.String("data", cb.Data))
	return nil
}

// CallbackID extracts the button id from a callback. Telebot fills Unique only
// for endpoints registered on the bot itself; otherwise the raw "\fid|payload"
// form is still in Data.
func CallbackID(cb *tele.Callback) string {
	if cb.Unique != "" {
		return cb.Unique
	}
	data := strings.TrimPrefix(cb.Data, "\f")
	id, _, _ := strings.Cut(data, "|")
	return strings.TrimSpace(id)
}
