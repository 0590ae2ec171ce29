package transport

import (
	"time"

	"github.com/valyala/fasthttp"
)

// SetSessionCookie attaches the session cookie to the response. Secure and
// SameSite are deliberately left to the deploying environment.
func SetSessionCookie(ctx *fasthttp.RequestCtx, name, value string, expires time.Time) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)

	c.SetKey(name)
	c.SetValue(value)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetExpire(expires)
	ctx.Response.Header.SetCookie(c)
}

// ClearSessionCookie instructs the client to drop the session cookie.
func ClearSessionCookie(ctx *fasthttp.RequestCtx, name string) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)

	c.SetKey(name)
	c.SetValue("")
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetExpire(fasthttp.CookieExpireDelete)
	ctx.Response.Header.SetCookie(c)
}
