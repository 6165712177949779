package config

const (
	EnvPrefix = "PIZZERIA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "PIZZERIA_APP_ENV"
	EnvPort                   = "PIZZERIA_APP_PORT"
	EnvLogLevel               = "PIZZERIA_LOG_LEVEL"
	EnvDBDSN                  = "PIZZERIA_DB_DSN"
	EnvDBHost                 = "PIZZERIA_DB_HOST"
	EnvDBUser                 = "PIZZERIA_DB_USER"
	EnvDBName                 = "PIZZERIA_DB_NAME"
	EnvRedisURL               = "PIZZERIA_REDIS_URL"
	EnvJWTSecret              = "PIZZERIA_JWT_SECRET"
	EnvJWTIssuer              = "PIZZERIA_JWT_ISSUER"
	EnvJWTExpMins             = "PIZZERIA_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PIZZERIA_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "PIZZERIA_GCP_PROJECT_ID"
	EnvPubSubDomainTopic      = "PIZZERIA_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub        = "PIZZERIA_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvStripeAPIKey           = "PIZZERIA_STRIPE_API_KEY"
	EnvStripeSecret           = "PIZZERIA_STRIPE_SECRET"

	EnvCheckoutFreeDeliveryThreshold = "PIZZERIA_CHECKOUT_FREE_DELIVERY_THRESHOLD"
	EnvCheckoutDeliveryFee           = "PIZZERIA_CHECKOUT_DELIVERY_FEE"
	EnvCheckoutTaxRate               = "PIZZERIA_CHECKOUT_TAX_RATE"
	EnvCheckoutCODMinimum            = "PIZZERIA_CHECKOUT_COD_MINIMUM"
	EnvCheckoutDeliveryETA           = "PIZZERIA_CHECKOUT_DELIVERY_ETA"
	EnvOrdersEnforceTransitions      = "PIZZERIA_ORDERS_ENFORCE_TRANSITIONS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
