// Package testutil provides in-memory fakes of the transport interfaces so
// pipeline packages can be tested without a Telegram bot.
package testutil
