package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"

	"github.com/shehrozeikram/CarWheels-sub000/adapters/carapi"
	"github.com/shehrozeikram/CarWheels-sub000/adapters/events"
	internalS3 "github.com/shehrozeikram/CarWheels-sub000/adapters/s3"
	"github.com/shehrozeikram/CarWheels-sub000/affiliation"
	"github.com/shehrozeikram/CarWheels-sub000/auction"
	"github.com/shehrozeikram/CarWheels-sub000/models"
	"github.com/shehrozeikram/CarWheels-sub000/notifications"
	"github.com/shehrozeikram/CarWheels-sub000/search"
	"github.com/shehrozeikram/CarWheels-sub000/store"
)

type ServerImpl struct {
	listings     *store.ListingStore
	dispatcher   *notifications.Dispatcher
	registry     *affiliation.Registry
	engine       *auction.Engine
	bidBroker    events.IBroker[auction.BidEvent]
	notifyBroker events.IBroker[models.Notification]
	carClient    *carapi.Client
	uploader     *internalS3.Uploader
	htmlChecker  *bluemonday.Policy

	config ServerConfig
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"
	logger := slog.Default()

	// 初始化S3客戶端（未設定Endpoint時停用照片上傳）
	var uploader *internalS3.Uploader
	if config.S3.Endpoint != "" {
		s3Cfg, err := awsCfg.LoadDefaultConfig(
			context.Background(),
			awsCfg.WithBaseEndpoint(config.S3.Endpoint),
			awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.S3.AccessKeyID, config.S3.SecretAccessKey, "")),
			awsCfg.WithRegion("auto"),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to load AWS config, err=%w", op, err)
		}
		uploader, err = internalS3.NewUploader(s3.NewFromConfig(s3Cfg), config.S3.Bucket, config.S3.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create S3 uploader, err=%w", op, err)
		}
	}

	// 初始化外部車輛API客戶端（未設定BaseURL時只用內建目錄）
	var carClient *carapi.Client
	if config.CarAPI.BaseURL != "" {
		carClient = carapi.NewClient(config.CarAPI.BaseURL, logger)
	}

	// 初始化事件代理與通知收件匣
	bidBroker := events.NewBroker[auction.BidEvent](logger)
	notifyBroker := events.NewBroker[models.Notification](logger)
	dispatcherOpts := []notifications.Option{notifications.WithBroker(notifyBroker)}
	if config.Notifications.Cap > 0 {
		dispatcherOpts = append(dispatcherOpts, notifications.WithCap(config.Notifications.Cap))
	}
	dispatcher := notifications.New(logger, dispatcherOpts...)

	// 初始化刊登儲存與競標引擎
	listings := store.New(logger)
	listings.Initialize(store.DefaultCatalog())
	engine := auction.New(listings, dispatcher, logger, auction.WithBroker(bidBroker))

	return &ServerImpl{
		listings:     listings,
		dispatcher:   dispatcher,
		registry:     affiliation.New(logger),
		engine:       engine,
		bidBroker:    bidBroker,
		notifyBroker: notifyBroker,
		carClient:    carClient,
		uploader:     uploader,
		htmlChecker:  bluemonday.UGCPolicy(),
		config:       config,
	}, nil
}

func (impl *ServerImpl) Start() {
	impl.bidBroker.Start()
	impl.notifyBroker.Start()

	// 從外部API補充目錄；失敗時保留內建目錄
	if impl.carClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		result, err := impl.carClient.Fetch(ctx)
		if err != nil {
			slog.Warn("Fail to fetch remote catalog, keep built-in catalog", slog.Any("error", err))
			return
		}
		if result.Degraded {
			slog.Warn("Remote catalog is degraded, merge cached snapshot")
		}
		impl.listings.Initialize(carapi.ToCatalog(result.Vehicles))
	}
}

func (impl *ServerImpl) Close() {
	impl.bidBroker.Done()
	impl.notifyBroker.Done()
}

func (impl *ServerImpl) RegisterRoutes(router gin.IRouter) {
	router.GET("/categories", impl.GetCategories)
	router.GET("/categories/:category/listings", impl.GetCategoryListings)
	router.GET("/listings/:listingID", impl.GetListing)
	router.GET("/listings/:listingID/events", impl.GetListingEvents)
	router.POST("/listings", impl.PostListing)
	router.POST("/listings/:listingID/photo", impl.PostListingPhoto)
	router.POST("/listings/:listingID/auction", impl.PostListingAuction)
	router.POST("/listings/:listingID/bids", impl.PostListingBid)
	router.POST("/listings/:listingID/promotion", impl.PostListingPromotion)
	router.DELETE("/listings/:listingID", impl.DeleteListing)
	router.GET("/search", impl.GetSearch)

	router.GET("/notifications", impl.GetNotifications)
	router.GET("/notifications/events", impl.GetNotificationEvents)
	router.PUT("/notifications", impl.PutNotificationsRead)
	router.PUT("/notifications/:notificationID", impl.PutNotificationRead)
	router.DELETE("/notifications", impl.DeleteNotifications)
	router.DELETE("/notifications/:index", impl.DeleteNotificationAt)

	router.GET("/organizations", impl.GetOrganizations)
	router.POST("/organizations", impl.PostOrganization)
	router.POST("/organizations/cleanup", impl.PostOrganizationCleanup)
	router.GET("/users/:userID/badge", impl.GetUserBadge)
	router.POST("/users/:userID/affiliation", impl.PostUserAffiliation)
	router.DELETE("/users/:userID/affiliation", impl.DeleteUserAffiliation)
}

// listingView 是刊登的對外表示，補上顯示用欄位與競標衍生值
type listingView struct {
	models.Listing
	MileageDisplay string `json:"mileageDisplay"`
	MinimumNextBid *int64 `json:"minimumNextBid,omitempty"`
	RemainingSecs  *int64 `json:"remainingSeconds,omitempty"`
}

func (impl *ServerImpl) view(listing models.Listing) listingView {
	view := listingView{
		Listing:        listing,
		MileageDisplay: models.FormatMileage(listing.Mileage),
	}
	if listing.Auction != nil && listing.Auction.Enabled {
		view.MinimumNextBid = lo.ToPtr(auction.MinimumNextBid(listing.Auction))
		view.RemainingSecs = lo.ToPtr(int64(auction.Remaining(listing.Auction, time.Now()).Seconds()))
	}
	return view
}

func (impl *ServerImpl) views(listings []models.Listing) []listingView {
	return lo.Map(listings, func(listing models.Listing, _ int) listingView {
		return impl.view(listing)
	})
}

// List categories
// (GET /categories)
func (impl *ServerImpl) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": impl.listings.Categories()})
}

// List listings of a category
// (GET /categories/{category}/listings)
func (impl *ServerImpl) GetCategoryListings(c *gin.Context) {
	category := c.Param("category")
	if !lo.Contains(impl.listings.Categories(), category) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found"})
		return
	}
	snapshot := search.SortFeatured(impl.listings.GetForCategory(category))
	c.JSON(http.StatusOK, gin.H{"listings": impl.views(snapshot)})
}

// Get listing details
// (GET /listings/{listingID})
func (impl *ServerImpl) GetListing(c *gin.Context) {
	listing, ok := impl.listings.Get(c.Param("listingID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Listing not found"})
		return
	}
	c.JSON(http.StatusOK, impl.view(listing))
}

// Search listings
// (GET /search?q=...&text=...)
func (impl *ServerImpl) GetSearch(c *gin.Context) {
	query := c.Query("q")
	freeText := c.Query("text")
	if query == "" && freeText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing query"})
		return
	}

	// 彙整所有分類的快照；跨分類重複刊登只取一次
	all := []models.Listing{}
	for _, category := range impl.listings.Categories() {
		all = append(all, impl.listings.GetForCategory(category)...)
	}
	all = lo.UniqBy(all, func(listing models.Listing) string { return listing.ID })

	var criteria *search.Criteria
	if query != "" {
		parsed := search.Interpret(query)
		criteria = &parsed
	}
	results := search.SortFeatured(search.Apply(all, criteria, freeText))
	c.JSON(http.StatusOK, gin.H{
		"criteria": criteria,
		"listings": impl.views(results),
	})
}

type postListingRequest struct {
	Category     string `json:"category" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	Price        int64  `json:"price"`
	PriceDisplay string `json:"priceDisplay"`
	Year         int    `json:"year"`
	Mileage      int    `json:"mileage"`
	Location     string `json:"location"`
	FuelType     string `json:"fuelType"`
	Seller       string `json:"seller"`
}

// Post a new ad
// (POST /listings)
func (impl *ServerImpl) PostListing(c *gin.Context) {
	const op = "PostListing"
	var request postListingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	// 顯示字串優先，否則由數值產生
	price := request.Price
	if request.PriceDisplay != "" {
		parsed, err := models.ParsePKR(request.PriceDisplay)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid price display"})
			return
		}
		price = parsed
	}
	if price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid price"})
		return
	}

	listing := models.Listing{
		ID:           uuid.NewString(),
		Category:     impl.htmlChecker.Sanitize(request.Category),
		Title:        impl.htmlChecker.Sanitize(request.Title),
		Description:  impl.htmlChecker.Sanitize(request.Description),
		Price:        price,
		PriceDisplay: models.FormatPKR(price),
		Year:         request.Year,
		Mileage:      request.Mileage,
		Location:     request.Location,
		FuelType:     models.FuelType(request.FuelType),
		ImageURL:     carapi.PlaceholderImage,
		Seller:       impl.htmlChecker.Sanitize(request.Seller),
		Status:       models.ListingActive,
	}
	impl.listings.Upsert(listing)
	slog.Info("Listing created", slog.String("op", op), slog.String("listingID", listing.ID))

	c.Header("Location", "/listings/"+listing.ID)
	c.JSON(http.StatusCreated, impl.view(listing))
}

// Upload a listing photo
// (POST /listings/{listingID}/photo)
func (impl *ServerImpl) PostListingPhoto(c *gin.Context) {
	const op = "PostListingPhoto"
	listingID := c.Param("listingID")
	if _, ok := impl.listings.Get(listingID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Listing not found"})
		return
	}
	if impl.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Photo upload is disabled"})
		return
	}

	contentType := c.ContentType()
	if _, ok := internalS3.PhotoExtension(contentType); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unsupported photo type"})
		return
	}

	content, err := io.ReadAll(internalS3.NewMaxSizeReader(c.Request.Body, internalS3.MaxPhotoBytes))
	if err != nil {
		if errors.As(err, &internalS3.ErrReachLimitType) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "Fail to read photo"})
		return
	}

	imageURL, err := impl.uploader.UploadListingPhoto(c.Request.Context(), listingID, contentType, content)
	if err != nil {
		slog.Error("Fail to upload listing photo", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Fail to upload photo"})
		return
	}
	impl.listings.Mutate(listingID, store.Patch{ImageURL: &imageURL})
	c.JSON(http.StatusOK, gin.H{"imageUrl": imageURL})
}

type postAuctionRequest struct {
	EndTime time.Time `json:"endTime" binding:"required"`
}

// Enable a time-boxed auction on a listing
// (POST /listings/{listingID}/auction)
func (impl *ServerImpl) PostListingAuction(c *gin.Context) {
	var request postAuctionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	// 檢查拍賣結束時間是否合法
	if request.EndTime.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid auction time"})
		return
	}

	listing, err := impl.engine.Open(c.Param("listingID"), request.EndTime)
	if err != nil {
		if errors.Is(err, auction.ErrNoAuction) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Listing not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Fail to open auction"})
		return
	}
	c.JSON(http.StatusCreated, impl.view(listing))
}

type postBidRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Bidder string `json:"bidder" binding:"required"`
}

// Place a bid on a listing
// (POST /listings/{listingID}/bids)
func (impl *ServerImpl) PostListingBid(c *gin.Context) {
	var request postBidRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	listing, err := impl.engine.PlaceBid(c.Param("listingID"), request.Amount, request.Bidder)
	switch {
	case errors.Is(err, auction.ErrNoAuction):
		c.JSON(http.StatusNotFound, gin.H{"message": "Listing has no active auction"})
	case errors.Is(err, auction.ErrAuctionEnded):
		c.JSON(http.StatusGone, gin.H{"message": "Auction has ended"})
	case errors.Is(err, auction.ErrInvalidBid):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Bid below minimum increment"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Fail to place bid"})
	default:
		c.JSON(http.StatusOK, impl.view(listing))
	}
}

type postPromotionRequest struct {
	Featured  *bool `json:"featured"`
	Managed   *bool `json:"managed"`
	Certified *bool `json:"certified"`
}

// Apply a promotion to a listing (flag updates)
// (POST /listings/{listingID}/promotion)
func (impl *ServerImpl) PostListingPromotion(c *gin.Context) {
	const op = "PostListingPromotion"
	var request postPromotionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if request.Featured == nil && request.Managed == nil && request.Certified == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Empty promotion"})
		return
	}

	listingID := c.Param("listingID")
	if _, ok := impl.listings.Get(listingID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Listing not found"})
		return
	}

	// 套用旗標變更，訂閱者同步收到新快照
	impl.listings.Mutate(listingID, store.Patch{
		IsFeatured:  request.Featured,
		IsManaged:   request.Managed,
		IsCertified: request.Certified,
	})
	slog.Info("Promotion applied", slog.String("op", op), slog.String("listingID", listingID))

	impl.dispatcher.Add(models.NotificationPromotion, map[string]any{
		"listingId": listingID,
		"featured":  request.Featured != nil && *request.Featured,
		"managed":   request.Managed != nil && *request.Managed,
		"certified": request.Certified != nil && *request.Certified,
	})

	listing, _ := impl.listings.Get(listingID)
	c.JSON(http.StatusOK, impl.view(listing))
}

// Remove a listing (soft delete)
// (DELETE /listings/{listingID})
func (impl *ServerImpl) DeleteListing(c *gin.Context) {
	if _, ok := impl.listings.Get(c.Param("listingID")); !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Listing not found"})
		return
	}
	impl.listings.Remove(c.Param("listingID"))
	c.Status(http.StatusNoContent)
}

// Track bid events of a listing
// (GET /listings/{listingID}/events)
func (impl *ServerImpl) GetListingEvents(c *gin.Context) {
	const op = "GetListingEvents"
	listingID := c.Param("listingID")
	listing, ok := impl.listings.Get(listingID)
	if !ok || listing.Auction == nil || !listing.Auction.Enabled {
		c.JSON(http.StatusNotFound, gin.H{"message": "Listing has no active auction"})
		return
	}
	if listing.Auction.Ended(time.Now()) {
		c.JSON(http.StatusGone, gin.H{"message": "Auction has ended"})
		return
	}

	// SSE請求合法，開始初始化串流
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Transfer-Encoding", "chunked")
	ch, err := impl.bidBroker.Subscribe(listingID)
	if err != nil {
		slog.Error("Fail to subscribe to listing events", slog.String("op", op), slog.Any("error", err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer impl.bidBroker.Unsubscribe(listingID, ch)
	for {
		select {
		case <-w.CloseNotify():
			return
		case event := <-ch:
			c.SSEvent("bid", event)
			w.Flush()
		// 30秒沒有事件就發送一個空行，確保瀏覽器和Cloudflare不會斷開連線
		case <-time.After(30 * time.Second):
			w.WriteString("\n\n")
			w.Flush()
		}
	}
}

// List notifications
// (GET /notifications)
func (impl *ServerImpl) GetNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"notifications": impl.dispatcher.List(),
		"unread":        impl.dispatcher.Unread(),
	})
}

// Track notification events
// (GET /notifications/events)
func (impl *ServerImpl) GetNotificationEvents(c *gin.Context) {
	const op = "GetNotificationEvents"
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Transfer-Encoding", "chunked")
	ch, err := impl.notifyBroker.Subscribe(notifications.Topic)
	if err != nil {
		slog.Error("Fail to subscribe to notification events", slog.String("op", op), slog.Any("error", err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer impl.notifyBroker.Unsubscribe(notifications.Topic, ch)
	for {
		select {
		case <-w.CloseNotify():
			return
		case notification := <-ch:
			c.SSEvent("notification", notification)
			w.Flush()
		case <-time.After(30 * time.Second):
			w.WriteString("\n\n")
			w.Flush()
		}
	}
}

// Mark one notification as read
// (PUT /notifications/{notificationID})
func (impl *ServerImpl) PutNotificationRead(c *gin.Context) {
	// 未知的通知ID靜默略過
	impl.dispatcher.MarkRead(c.Param("notificationID"))
	c.Status(http.StatusNoContent)
}

// Mark all notifications as read
// (PUT /notifications)
func (impl *ServerImpl) PutNotificationsRead(c *gin.Context) {
	impl.dispatcher.MarkAllRead()
	c.Status(http.StatusNoContent)
}

// Remove one notification by position
// (DELETE /notifications/{index})
func (impl *ServerImpl) DeleteNotificationAt(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid index"})
		return
	}
	// 超出範圍靜默略過
	impl.dispatcher.RemoveAt(index)
	c.Status(http.StatusNoContent)
}

// Clear all notifications
// (DELETE /notifications)
func (impl *ServerImpl) DeleteNotifications(c *gin.Context) {
	impl.dispatcher.ClearAll()
	c.Status(http.StatusNoContent)
}

type postOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

// Register an organization
// (POST /organizations)
func (impl *ServerImpl) PostOrganization(c *gin.Context) {
	var request postOrganizationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	org := impl.registry.RegisterOrganization(impl.htmlChecker.Sanitize(request.Name))
	c.Header("Location", "/organizations/"+org.ID)
	c.JSON(http.StatusCreated, org)
}

// List organizations
// (GET /organizations)
func (impl *ServerImpl) GetOrganizations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"organizations": impl.registry.Organizations()})
}

// De-dupe organizations by exact name
// (POST /organizations/cleanup)
func (impl *ServerImpl) PostOrganizationCleanup(c *gin.Context) {
	removed := impl.registry.CleanupDuplicateOrganizations()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

type postAffiliationRequest struct {
	OrgID string `json:"orgId" binding:"required"`
	Title string `json:"title"`
}

// Affiliate a user with an organization
// (POST /users/{userID}/affiliation)
func (impl *ServerImpl) PostUserAffiliation(c *gin.Context) {
	var request postAffiliationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	created, err := impl.registry.CreateAffiliation(c.Param("userID"), request.OrgID, impl.htmlChecker.Sanitize(request.Title))
	if err != nil {
		if errors.Is(err, affiliation.ErrOrgNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Organization not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Fail to create affiliation"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Remove a user's affiliation
// (DELETE /users/{userID}/affiliation)
func (impl *ServerImpl) DeleteUserAffiliation(c *gin.Context) {
	impl.registry.RemoveAffiliation(c.Param("userID"))
	c.Status(http.StatusNoContent)
}

// Get a user's verification badge
// (GET /users/{userID}/badge)
func (impl *ServerImpl) GetUserBadge(c *gin.Context) {
	// 沒有關聯時徽章為null
	c.JSON(http.StatusOK, gin.H{
		"badge":       impl.registry.UserBadge(c.Param("userID")),
		"affiliation": impl.registry.UserAffiliation(c.Param("userID")),
	})
}
