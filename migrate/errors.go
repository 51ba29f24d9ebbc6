package migrate

import "errors"

var (
	// ErrPaused rejects migrations while the engine is halted.
	ErrPaused = errors.New("migrate: engine paused")
	// ErrUnauthorized rejects admin calls from anyone but the owner.
	ErrUnauthorized = errors.New("migrate: caller is not the owner")

	// ErrInvalidAdapter rejects migrations through an unregistered adapter.
	ErrInvalidAdapter = errors.New("migrate: adapter not registered")
	// ErrAdapterAlreadyAllowed rejects re-registering a known adapter.
	ErrAdapterAlreadyAllowed = errors.New("migrate: adapter already registered")
	// ErrAdapterNotAllowed rejects removing an unknown adapter.
	ErrAdapterNotAllowed = errors.New("migrate: unknown adapter")

	// ErrCometNotSupported rejects migrations into an unconfigured market.
	ErrCometNotSupported = errors.New("migrate: comet market not supported")
	// ErrCometAlreadyConfigured rejects configuring a market twice.
	ErrCometAlreadyConfigured = errors.New("migrate: comet market already configured")
	// ErrCometNotConfigured rejects removing configuration that does not exist.
	ErrCometNotConfigured = errors.New("migrate: comet market not configured")
	// ErrInvalidFlashConfig rejects flash wiring whose pool does not carry
	// the market's base token.
	ErrInvalidFlashConfig = errors.New("migrate: invalid flash loan configuration")

	// ErrInvalidMigrationData rejects empty or undecodable position payloads.
	ErrInvalidMigrationData = errors.New("migrate: invalid migration data")
	// ErrInvalidFlashAmount rejects migrations without a positive flash size.
	ErrInvalidFlashAmount = errors.New("migrate: invalid flash amount")

	// ErrSenderNotAllowed rejects flash callbacks from anyone but the
	// configured pool.
	ErrSenderNotAllowed = errors.New("migrate: callback sender not allowed")
	// ErrInvalidCallbackHash rejects callbacks whose payload does not match
	// the in-flight migration.
	ErrInvalidCallbackHash = errors.New("migrate: invalid callback hash")
	// ErrFlashNotRepaid is returned by the reference pool when the borrowed
	// amount plus fee does not come back.
	ErrFlashNotRepaid = errors.New("migrate: flash loan not repaid")

	errCallbackNotInvoked = errors.New("migrate: flash pool never invoked the callback")
)
