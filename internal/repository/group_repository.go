package repository

import (
	"github.com/yukikurage/roommates-api/internal/models"
	"gorm.io/gorm"
)

// GormGroupRepository is a GORM implementation of GroupRepository
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

// CreateWithOwner creates a group and the owner's membership in a transaction
func (r *GormGroupRepository) CreateWithOwner(group *models.Group, owner *models.GroupMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Tasks").Create(group).Error; err != nil {
			return err
		}

		owner.GroupID = group.ID
		return tx.Omit("Group", "User").Create(owner).Error
	})
}

// FindByID finds a group by ID
func (r *GormGroupRepository) FindByID(id uint64) (*models.Group, error) {
	var group models.Group
	if err := r.db.First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByJoinCode finds a group by join code
func (r *GormGroupRepository) FindByJoinCode(code string) (*models.Group, error) {
	var group models.Group
	if err := r.db.Where("join_code = ?", code).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// ListIDs returns the IDs of every group
func (r *GormGroupRepository) ListIDs() ([]uint64, error) {
	var ids []uint64
	if err := r.db.Model(&models.Group{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Update saves the group's name and join code
func (r *GormGroupRepository) Update(group *models.Group) error {
	return r.db.Model(group).Select("name", "join_code").Updates(group).Error
}

// SwapOwner performs a compare-and-swap on the owner column
func (r *GormGroupRepository) SwapOwner(groupID, expected, next uint64) (bool, error) {
	result := r.db.Model(&models.Group{}).
		Where("id = ? AND owner_id = ?", groupID, expected).
		Updates(map[string]interface{}{
			"owner_id": next,
			"revision": gorm.Expr("revision + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete deletes a group and all related data in a transaction
func (r *GormGroupRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Unscoped().Model(&models.Task{}).Select("id").Where("group_id = ?", id)

		// Delete all assignments of the group's tasks
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		// Delete all tasks in the group
		if err := tx.Unscoped().Where("group_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		// Delete all members
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}

		// Delete group
		return tx.Delete(&models.Group{}, id).Error
	})
}

// AddMember adds a member to a group
func (r *GormGroupRepository) AddMember(member *models.GroupMember) error {
	return r.db.Omit("Group", "User").Create(member).Error
}

// RemoveMember removes a member, transferring ownership first when asked to
func (r *GormGroupRepository) RemoveMember(groupID, userID uint64, nextOwnerID *uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if nextOwnerID != nil {
			if err := tx.Model(&models.Group{}).
				Where("id = ?", groupID).
				Updates(map[string]interface{}{
					"owner_id": *nextOwnerID,
					"revision": gorm.Expr("revision + 1"),
				}).Error; err != nil {
				return err
			}
		}

		result := tx.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindMembershipByUserID finds the membership of a user in any group
func (r *GormGroupRepository) FindMembershipByUserID(userID uint64) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.Where("user_id = ?", userID).
		Order("joined_at, group_id").
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a group in join order
func (r *GormGroupRepository) ListMembers(groupID uint64) ([]models.GroupMember, error) {
	var members []models.GroupMember
	if err := r.db.Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_at, user_id").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
