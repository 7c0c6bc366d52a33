// Package telemetry builds the process logger.
//
// Components log through logr.Logger. The backend is zap, bridged with
// zapr. Driver iterations are logged at V(1) and engine passes at V(2), so
// LOG_LEVEL=DEBUG shows the iteration trace and LOG_LEVEL=TRACE adds every
// graph pass.
package telemetry
