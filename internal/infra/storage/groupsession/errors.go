package groupsession

import "errors"

var (
	// ErrSessionNotFound возвращается, когда групповая тренировка не найдена
	ErrSessionNotFound = errors.New("groupsession.repository: group session not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("groupsession.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("groupsession.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("groupsession.repository: failed to scan row")
)
