package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2/middleware/cors"
)

func CORSConfig(allowedOrigins []string) cors.Config {
	return cors.Config{
		AllowOrigins: strings.Join(allowedOrigins, ","),
		AllowMethods: "POST,GET,OPTIONS",
		AllowHeaders: "Content-Type,Cache-Control,Pragma,X-Relay-Key",
	}
}
