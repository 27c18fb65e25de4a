package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"
	// GeneralNotFoundError represents a generic not found error.
	GeneralNotFoundError ErrorCode = "general_not_found_error"

	// OrderInvalidQuantity represents an error when an order is submitted with a non-positive quantity.
	OrderInvalidQuantity ErrorCode = "order_invalid_quantity"
	// OrderInvalidPrice represents an error when a limit order is submitted with a non-positive price.
	OrderInvalidPrice ErrorCode = "order_invalid_price"
	// OrderInvalidSide represents an error when an order carries an unknown side.
	OrderInvalidSide ErrorCode = "order_invalid_side"
	// OrderInvalidKind represents an error when an order carries an unknown kind.
	OrderInvalidKind ErrorCode = "order_invalid_kind"
	// OrderUnknownSymbol represents an error when an order is submitted for an empty or unrecognized symbol.
	OrderUnknownSymbol ErrorCode = "order_unknown_symbol"
	// OrderFeedDecodeError represents an order feed message that could not be decoded.
	OrderFeedDecodeError ErrorCode = "order_feed_decode_error"

	// OrderbookCrossed represents a detected crossed book after a matching pass.
	OrderbookCrossed ErrorCode = "orderbook_crossed"
	// OrderbookInconsistent represents a detected invariant violation on a symbol's book.
	OrderbookInconsistent ErrorCode = "orderbook_inconsistent"
	// OrderbookQuarantined represents a rejected submit against a quarantined symbol.
	OrderbookQuarantined ErrorCode = "orderbook_quarantined"

	// TradeLogAppendError represents a failure to append a trade to the durable trade log.
	TradeLogAppendError ErrorCode = "trade_log_append_error"
	// PnlUpdateError represents a failure to apply a trade's PnL mutations.
	PnlUpdateError ErrorCode = "pnl_update_error"
	// TradeArchiveError represents a failure to archive trades to the history store.
	TradeArchiveError ErrorCode = "trade_archive_error"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisHGetError represents an error when getting a field from a hash in Redis.
	RedisHGetError ErrorCode = "redis_hget_error"
	// RedisHIncrByFloatError represents an error when incrementing a hash field in Redis.
	RedisHIncrByFloatError ErrorCode = "redis_hincrbyfloat_error"
	// RedisTxPipelineError represents an error when executing a MULTI/EXEC pipeline in Redis.
	RedisTxPipelineError ErrorCode = "redis_tx_pipeline_error"
	// RedisXAddError represents an error when adding entries to a stream in Redis.
	RedisXAddError ErrorCode = "redis_xadd_error"
	// RedisXLenError represents an error when getting the length of a stream in Redis.
	RedisXLenError ErrorCode = "redis_xlen_error"
	// RedisXRevRangeError represents an error when range-reading a stream in Redis.
	RedisXRevRangeError ErrorCode = "redis_xrevrange_error"
)
