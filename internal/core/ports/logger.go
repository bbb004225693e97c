package ports

// Logger define la interfaz de logging estructurado del módulo. Los mensajes
// van en claves-valor alternadas, al estilo del sugared logger de zap.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// With añade pares clave-valor al contexto del logger.
	With(args ...interface{}) Logger
}
