package main

import (
	"net/http"

	"bitbucket.org/mmdatafocus/wms_backend/models"
	"github.com/gin-gonic/gin"
)

func registerCatalogRoutes(r *gin.Engine) {
	vendors := r.Group("/api/vendors")
	vendors.GET("", listVendorsHandler)
	vendors.GET("/:id", getVendorHandler)
	vendors.POST("", createVendorHandler)

	products := r.Group("/api/products")
	products.GET("", listProductsHandler)
	products.GET("/:id", getProductHandler)
	products.POST("", createProductHandler)

	warehouses := r.Group("/api/warehouses")
	warehouses.GET("", listWarehousesHandler)
	warehouses.GET("/:id", getWarehouseHandler)
	warehouses.POST("", createWarehouseHandler)

	locations := r.Group("/api/locations")
	locations.GET("", listLocationsHandler)
	locations.GET("/:id", getLocationHandler)
	locations.POST("", createLocationHandler)
	locations.PATCH("/:id/status", updateLocationStatusHandler)

	docks := r.Group("/api/docks")
	docks.GET("", listDocksHandler)
	docks.GET("/:id", getDockHandler)
	docks.POST("", createDockHandler)
}

func listVendorsHandler(c *gin.Context) {
	vendors, err := models.ListVendors(c.Request.Context(), queryStringPtr(c, "search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vendors})
}

func getVendorHandler(c *gin.Context) {
	vendor, err := models.GetVendor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vendor})
}

func createVendorHandler(c *gin.Context) {
	var input models.NewVendor
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	vendor, err := models.CreateVendor(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": vendor})
}

func listProductsHandler(c *gin.Context) {
	products, err := models.ListProducts(c.Request.Context(), queryStringPtr(c, "search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

func getProductHandler(c *gin.Context) {
	product, err := models.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

func createProductHandler(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	product, err := models.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": product})
}

func listWarehousesHandler(c *gin.Context) {
	warehouses, err := models.ListWarehouses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": warehouses})
}

func getWarehouseHandler(c *gin.Context) {
	warehouse, err := models.GetWarehouse(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": warehouse})
}

func createWarehouseHandler(c *gin.Context) {
	var input models.NewWarehouse
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	warehouse, err := models.CreateWarehouse(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": warehouse})
}

func listLocationsHandler(c *gin.Context) {
	var locType *models.LocationType
	if s := c.Query("type"); s != "" {
		t := models.LocationType(s)
		locType = &t
	}
	locations, err := models.ListLocations(c.Request.Context(), queryStringPtr(c, "zone"), locType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": locations})
}

func getLocationHandler(c *gin.Context) {
	location, err := models.GetLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": location})
}

func createLocationHandler(c *gin.Context) {
	var input models.NewLocation
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	location, err := models.CreateLocation(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": location})
}

func updateLocationStatusHandler(c *gin.Context) {
	var input struct {
		Status models.LocationStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	location, err := models.UpdateLocationStatus(c.Request.Context(), c.Param("id"), input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": location})
}

func listDocksHandler(c *gin.Context) {
	docks, err := models.ListDocks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": docks})
}

func getDockHandler(c *gin.Context) {
	dock, err := models.GetDock(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dock})
}

func createDockHandler(c *gin.Context) {
	var input models.NewDock
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	dock, err := models.CreateDock(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": dock})
}
