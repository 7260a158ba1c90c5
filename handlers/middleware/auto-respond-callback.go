package middleware

import tele "gopkg.in/telebot.v3"

// AutoRespondCallback answers every callback query up front so the client
// stops its spinner while slow handlers are still sending images.
func AutoRespondCallback(hf tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			_ = c.Respond(&tele.CallbackResponse{})
		}
		return hf(c)
	}
}
