package repository

import (
	"foros/internal/models"

	"gorm.io/gorm"
)

// The schema declares ON DELETE CASCADE, but sqlite only honours it with
// foreign_keys enabled, so dependent rows are removed explicitly.

func deleteHilos(tx *gorm.DB, hiloIDs []uint) error {
	if len(hiloIDs) == 0 {
		return nil
	}
	if err := tx.Where("hilo_id IN ?", hiloIDs).Delete(&models.Notificacion{}).Error; err != nil {
		return err
	}
	if err := tx.Where("hilo_id IN ?", hiloIDs).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if err := tx.Where("hilo_id IN ?", hiloIDs).Delete(&models.Comentario{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", hiloIDs).Delete(&models.Hilo{}).Error
}

// deleteComentarioTrees removes the given comentarios and every reply below them.
func deleteComentarioTrees(tx *gorm.DB, rootIDs []uint) error {
	all := append([]uint(nil), rootIDs...)
	frontier := rootIDs
	for len(frontier) > 0 {
		var children []uint
		if err := tx.Model(&models.Comentario{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return err
		}
		all = append(all, children...)
		frontier = children
	}
	if len(all) == 0 {
		return nil
	}
	if err := tx.Where("comentario_id IN ?", all).Delete(&models.Notificacion{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", all).Delete(&models.Comentario{}).Error
}

// deleteForos removes the foros and their hilos, returning the hilo IDs so the
// caller can clear their cache entries once the transaction commits.
func deleteForos(tx *gorm.DB, foroIDs []uint) ([]uint, error) {
	if len(foroIDs) == 0 {
		return nil, nil
	}
	var hiloIDs []uint
	if err := tx.Model(&models.Hilo{}).Where("foro_id IN ?", foroIDs).Pluck("id", &hiloIDs).Error; err != nil {
		return nil, err
	}
	if err := deleteHilos(tx, hiloIDs); err != nil {
		return nil, err
	}
	return hiloIDs, tx.Where("id IN ?", foroIDs).Delete(&models.Foro{}).Error
}

// recountHilos rebuilds counters from the ledger and bumps their version so
// in-flight vote attempts retry against the new total.
func recountHilos(tx *gorm.DB, hiloIDs []uint) error {
	if len(hiloIDs) == 0 {
		return nil
	}
	return tx.Model(&models.Hilo{}).
		Where("id IN ?", hiloIDs).
		UpdateColumns(map[string]interface{}{
			"vote_count": gorm.Expr("(SELECT COALESCE(SUM(votes.value), 0) FROM votes WHERE votes.hilo_id = hilos.id)"),
			"version":    gorm.Expr("version + 1"),
		}).Error
}
