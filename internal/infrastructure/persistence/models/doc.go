// Package models contains the GORM persistence models and their mapping to
// and from domain entities. Domain entities never carry persistence tags;
// every aggregate crosses the boundary through an explicit conversion here.
package models
