package model

import "fmt"

// Actor is the authenticated party performing an action. The set of
// implementations is closed: Farmer, Buyer, Rider, Supplier and Admin.
type Actor interface {
	UserID() int64
	Role() Role
	actor()
}

type Farmer struct{ ID int64 }

type Buyer struct{ ID int64 }

type Rider struct{ ID int64 }

type Supplier struct{ ID int64 }

type Admin struct{ ID int64 }

func (a Farmer) UserID() int64   { return a.ID }
func (a Buyer) UserID() int64    { return a.ID }
func (a Rider) UserID() int64    { return a.ID }
func (a Supplier) UserID() int64 { return a.ID }
func (a Admin) UserID() int64    { return a.ID }

func (Farmer) Role() Role   { return RoleFarmer }
func (Buyer) Role() Role    { return RoleBuyer }
func (Rider) Role() Role    { return RoleRider }
func (Supplier) Role() Role { return RoleSupplier }
func (Admin) Role() Role    { return RoleAdmin }

func (Farmer) actor()   {}
func (Buyer) actor()    {}
func (Rider) actor()    {}
func (Supplier) actor() {}
func (Admin) actor()    {}

// NewActor builds the actor variant for the given role.
func NewActor(userID int64, role Role) (Actor, error) {
	switch role {
	case RoleFarmer:
		return Farmer{ID: userID}, nil
	case RoleBuyer:
		return Buyer{ID: userID}, nil
	case RoleRider:
		return Rider{ID: userID}, nil
	case RoleSupplier:
		return Supplier{ID: userID}, nil
	case RoleAdmin:
		return Admin{ID: userID}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}

// CanSell reports whether the actor may list products.
func CanSell(a Actor) bool {
	switch a.(type) {
	case Farmer, Supplier:
		return true
	}
	return false
}

// CanPurchase reports whether the actor may place orders.
func CanPurchase(a Actor) bool {
	switch a.(type) {
	case Farmer, Buyer, Supplier:
		return true
	}
	return false
}
