package domain

const (
	// WALLET_CHALLENGE_PREFIX is prepended to the user id to form the wallet binding challenge
	WALLET_CHALLENGE_PREFIX = "Connect to E-Health: "

	// DEFAULT_AUDIT_WINDOW_BLOCKS is how many recent blocks the audit reader scans by default
	DEFAULT_AUDIT_WINDOW_BLOCKS = 10_000

	// DEFAULT_AUDIT_GAS_LIMIT is the gas limit used for logDataAccess appends
	DEFAULT_AUDIT_GAS_LIMIT = 200_000

	// ETHEREUM_ZERO_ADDRESS is the zero address
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"
)
