/*
Package service exposes the operation surface consumed by request
handlers: submit, rerun, status, logs, history, log streaming and
notifications. It is a stateless pass-through over the tracker and hub,
plus the IsNotFound/IsInvalidArgument helpers handlers use to translate
fault kinds into boundary responses.
*/
package service
