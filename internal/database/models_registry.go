package database

import "foros/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Foro{},
		&models.Hilo{},
		&models.Vote{},
		&models.Comentario{},
		&models.Notificacion{},
	}
}
