package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets for the external collaborators (payment
// processor, identity provider, catalog, mail transport) are loaded here so
// that both the API server and the background worker share one loader.
type Config struct {
    Env  string // application environment (e.g. "dev", "prod")
    Port string // HTTP port to listen on

    DBUser string // database username
    DBPass string // database password (optional)
    DBHost string // database host address
    DBPort string // database port number
    DBName string // database name

    JWTSecret             string // secret shared with the identity provider for verifying access tokens
    IdentityWebhookSecret string // secret used to verify identity lifecycle webhooks

    TMDBAPIKey     string // bearer token for the external movie catalog
    TMDBBaseURL    string // catalog base URL (overridable for tests)
    RecommenderURL string // base URL of the external recommender service (optional)

    StripeSecretKey     string // API key for the payment processor
    StripeWebhookSecret string // signing secret for payment webhooks
    CheckoutSuccessURL  string // where the processor redirects after successful payment
    CheckoutCancelURL   string // where the processor redirects after cancelled payment

    SMTPHost string // mail transport host
    SMTPPort int    // mail transport port
    SMTPUser string // mail transport username (optional)
    SMTPPass string // mail transport password (optional)
    MailFrom string // sender address for outgoing mail

    HoldTTLMin int // minutes an unpaid booking keeps its seats before expiry
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Optional values
// fall back to sensible defaults.
func Load() Config {
    return Config{
        Env:  must("APP_ENV"),
        Port: must("APP_PORT"),

        DBUser: must("DB_USER"),
        DBPass: os.Getenv("DB_PASS"), // empty allowed
        DBHost: must("DB_HOST"),
        DBPort: must("DB_PORT"),
        DBName: must("DB_NAME"),

        JWTSecret:             must("JWT_SECRET"),
        IdentityWebhookSecret: must("IDENTITY_WEBHOOK_SECRET"),

        TMDBAPIKey:     must("TMDB_API_KEY"),
        TMDBBaseURL:    getenv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
        RecommenderURL: os.Getenv("RECOMMENDER_URL"), // empty disables the external recommender

        StripeSecretKey:     must("STRIPE_SECRET_KEY"),
        StripeWebhookSecret: must("STRIPE_WEBHOOK_SECRET"),
        CheckoutSuccessURL:  getenv("CHECKOUT_SUCCESS_URL", "http://localhost:5173/loading/my-bookings"),
        CheckoutCancelURL:   getenv("CHECKOUT_CANCEL_URL", "http://localhost:5173/my-bookings"),

        SMTPHost: must("SMTP_HOST"),
        SMTPPort: mustInt("SMTP_PORT"),
        SMTPUser: os.Getenv("SMTP_USER"),
        SMTPPass: os.Getenv("SMTP_PASS"),
        MailFrom: must("MAIL_FROM"),

        HoldTTLMin: envInt("BOOKING_HOLD_TTL_MIN", 10),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}
