// Package docs provides the Swagger documentation for the API.
package docs

// @title           Itinerary Gateway
// @version         1.0
// @description     Request gateway for the itinerary planner. Resolves the caller's API key from the request payload, validates it and relays the request to an OpenAI-compatible engine, streaming the response back.
// @termsOfService  https://github.com/aashari/go-itinerary-gateway/blob/main/LICENSE

// @contact.name   API Support
// @contact.url    https://github.com/aashari/go-itinerary-gateway

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8082
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and an API key starting with "sk-".
